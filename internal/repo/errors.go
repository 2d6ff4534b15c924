package repo

import (
	"github.com/angelmondragon/stockhub-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
)

// MapError translates a raw persistence error into the API taxonomy.
// entity names the row kind in user-facing messages; action describes the
// failed operation for dependency errors.
func MapError(err error, entity, action string) error {
	switch {
	case err == nil:
		return nil
	case pkgerrors.As(err) != nil:
		return err
	case db.IsNotFound(err):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, entity+" not found")
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, entity+" already exists")
	case db.IsForeignKeyViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, entity+" is still referenced")
	case db.IsCheckViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, entity+" is invalid")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
	}
}

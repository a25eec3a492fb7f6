package shopkeeper

import (
	"fmt"

	apperrors "github.com/louisbranch/shopkeepers/internal/platform/errors"
)

// CreateError reports invalid or inconsistent creation data.
func CreateError(format string, args ...any) error {
	return apperrors.Newf(apperrors.CodeShopkeeperCreate, format, args...)
}

// LoadError reports a stored record that cannot be loaded.
func LoadError(message string, cause error) error {
	if cause == nil {
		return apperrors.New(apperrors.CodeShopkeeperLoad, message)
	}
	if message == "" {
		return apperrors.Wrap(apperrors.CodeShopkeeperLoad, "", cause)
	}
	return apperrors.Wrap(apperrors.CodeShopkeeperLoad, fmt.Sprintf("%s: %v", message, cause), cause)
}

// SnapshotLoadError wraps a load failure hit while applying a snapshot.
func SnapshotLoadError(snapshot string, cause error) error {
	return apperrors.Wrap(
		apperrors.CodeShopkeeperSnapshotLoad,
		fmt.Sprintf("apply snapshot %q: %v", snapshot, cause),
		cause,
	)
}

// ValidationError reports a rejected name, snapshot, or placement.
func ValidationError(format string, args ...any) error {
	return apperrors.Newf(apperrors.CodeShopkeeperValidation, format, args...)
}

func IsCreateError(err error) bool {
	return apperrors.HasCode(err, apperrors.CodeShopkeeperCreate)
}

func IsLoadError(err error) bool {
	return apperrors.HasCode(err, apperrors.CodeShopkeeperLoad)
}

func IsSnapshotLoadError(err error) bool {
	return apperrors.HasCode(err, apperrors.CodeShopkeeperSnapshotLoad)
}

func IsValidationError(err error) bool {
	return apperrors.HasCode(err, apperrors.CodeShopkeeperValidation)
}

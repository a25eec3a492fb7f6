// Package errors provides structured error handling for shopkeeper services.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Shopkeeper lifecycle errors
	CodeShopkeeperCreate       Code = "SHOPKEEPER_CREATE_FAILED"
	CodeShopkeeperLoad         Code = "SHOPKEEPER_LOAD_FAILED"
	CodeShopkeeperSnapshotLoad Code = "SHOPKEEPER_SNAPSHOT_LOAD_FAILED"
	CodeShopkeeperValidation   Code = "SHOPKEEPER_VALIDATION_FAILED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeShopkeeperCreate,
		CodeShopkeeperValidation:
		return codes.InvalidArgument

	// FailedPrecondition - stored or captured data cannot be applied
	case CodeShopkeeperLoad,
		CodeShopkeeperSnapshotLoad:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}

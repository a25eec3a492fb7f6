package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := Wrap(CodeShopkeeperLoad, "bad record", stderrors.New("missing id"))
	wrapped := fmt.Errorf("load shopkeeper: %w", err)

	if !HasCode(wrapped, CodeShopkeeperLoad) {
		t.Fatal("expected wrapped error to carry load code")
	}
	if HasCode(wrapped, CodeShopkeeperCreate) {
		t.Fatal("expected wrapped error not to carry create code")
	}
	if got := CodeOf(wrapped); got != CodeShopkeeperLoad {
		t.Fatalf("code = %q, want %q", got, CodeShopkeeperLoad)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("code = %q, want %q", got, CodeUnknown)
	}
}

func TestErrorMessageFallsBackToCause(t *testing.T) {
	err := Wrap(CodeShopkeeperSnapshotLoad, "", stderrors.New("unknown shop type: x"))
	if err.Error() != "unknown shop type: x" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeShopkeeperCreate, codes.InvalidArgument},
		{CodeShopkeeperValidation, codes.InvalidArgument},
		{CodeShopkeeperLoad, codes.FailedPrecondition},
		{CodeShopkeeperSnapshotLoad, codes.FailedPrecondition},
		{CodeNotFound, codes.NotFound},
		{CodeUnknown, codes.Internal},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			if got := tc.code.GRPCCode(); got != tc.want {
				t.Fatalf("grpc code = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestToGRPCStatusAttachesErrorInfo(t *testing.T) {
	err := WithMetadata(CodeShopkeeperValidation, "duplicate snapshot name", map[string]string{"name": "foo"})

	st, ok := status.FromError(err.ToGRPCStatus())
	if !ok {
		t.Fatal("expected grpc status")
	}
	if st.Code() != codes.InvalidArgument {
		t.Fatalf("status code = %v, want %v", st.Code(), codes.InvalidArgument)
	}
	var info *errdetails.ErrorInfo
	for _, detail := range st.Details() {
		if candidate, ok := detail.(*errdetails.ErrorInfo); ok {
			info = candidate
		}
	}
	if info == nil {
		t.Fatal("expected error info detail")
	}
	if info.GetReason() != string(CodeShopkeeperValidation) {
		t.Fatalf("reason = %q", info.GetReason())
	}
	if info.GetMetadata()["name"] != "foo" {
		t.Fatalf("metadata = %v", info.GetMetadata())
	}
}

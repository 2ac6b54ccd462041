package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "studywarden/internal/platform/errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const errorDomain = "studywarden"

var grpcCodes = map[apperrors.Code]codes.Code{
	apperrors.CodeInvalidInput:        codes.InvalidArgument,
	apperrors.CodeNotFound:            codes.NotFound,
	apperrors.CodeNoBudgetRemaining:   codes.ResourceExhausted,
	apperrors.CodeOutsideAllowedHours: codes.FailedPrecondition,
	apperrors.CodeSessionActive:       codes.AlreadyExists,
	apperrors.CodeBreakActive:         codes.FailedPrecondition,
	apperrors.CodeBreakLimitExceeded:  codes.ResourceExhausted,
	apperrors.CodeInvalidTransition:   codes.FailedPrecondition,
	apperrors.CodeAnalysisUnavailable: codes.Unavailable,
	apperrors.CodePersistenceFailure:  codes.Internal,
}

// ToStatus converts err into a gRPC status carrying its code as an ErrorInfo
// reason, so clients can rebuild the sentinel.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	code := apperrors.CodeOf(err)
	grpcCode, ok := grpcCodes[code]
	if !ok {
		grpcCode = codes.Internal
	}
	st := status.New(grpcCode, err.Error())
	detailed, detailErr := st.WithDetails(&errdetails.ErrorInfo{Reason: string(code), Domain: errorDomain})
	if detailErr != nil {
		return st.Err()
	}
	return detailed.Err()
}

// FromStatus rebuilds the coded error a server returned. Errors without a
// known reason are returned unchanged.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, detail := range st.Details() {
		info, ok := detail.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != errorDomain {
			continue
		}
		if sentinel := apperrors.FromCode(apperrors.Code(info.GetReason())); sentinel != nil {
			detail := strings.TrimPrefix(st.Message(), sentinel.Error())
			detail = strings.TrimPrefix(detail, ": ")
			if detail == "" {
				return sentinel
			}
			return fmt.Errorf("%w: %s", sentinel, detail)
		}
	}
	return err
}

package rpc

import (
	"context"
	"fmt"
	"strings"

	apperrors "studywarden/internal/platform/errors"

	"google.golang.org/grpc/metadata"
)

// GuardianHeader carries the authenticated guardian id. Credential issuance
// happens upstream; the server trusts this header.
const GuardianHeader = "x-guardian-id"

func WithGuardian(ctx context.Context, guardianID string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, GuardianHeader, guardianID)
}

func GuardianFrom(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", fmt.Errorf("%w: missing %s", apperrors.ErrInvalidInput, GuardianHeader)
	}
	values := md.Get(GuardianHeader)
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return "", fmt.Errorf("%w: missing %s", apperrors.ErrInvalidInput, GuardianHeader)
	}
	return strings.TrimSpace(values[0]), nil
}

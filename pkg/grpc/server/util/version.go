package util

import (
	"context"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"golang.org/x/mod/semver"
)

const ClientVersionHeader = "Psm-Client-Version"

// CheckClientVersion reports whether toCheck is at least minVersion. A
// leading "v" is optional for both values.
func CheckClientVersion(toCheck, minVersion string) bool {
	toCheck = canonical(toCheck)
	if !semver.IsValid(toCheck) {
		return false
	}
	return semver.Compare(toCheck, canonical(minVersion)) >= 0
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// NewVersionCheckInterceptor rejects clients which report a version older
// than minVersion. Requests without version header are accepted.
func NewVersionCheckInterceptor(minVersion string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return connect.UnaryFunc(func(
			ctx context.Context,
			req connect.AnyRequest,
		) (connect.AnyResponse, error) {
			if minVersion == "" || req.Spec().IsClient {
				return next(ctx, req)
			}
			v := req.Header().Get(ClientVersionHeader)
			if v != "" && !CheckClientVersion(v, minVersion) {
				return nil, connect.NewError(connect.CodeFailedPrecondition,
					fmt.Errorf("client version %s is older than required %s", v, minVersion))
			}
			return next(ctx, req)
		})
	}
}

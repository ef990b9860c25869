package requestdata

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey{})
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}

// RequestData is the authenticated caller resolved by the auth
// middleware before any core operation runs. ProfileID is the student or
// supervisor row id matching Role; uuid.Nil for admins.
type RequestData struct {
	TokenString string
	UserID      uuid.UUID
	Role        string
	ProfileID   uuid.UUID
}

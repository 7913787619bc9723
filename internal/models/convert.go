package models

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityTime converts a stored lastActivity value into a point in time.
//
// Accepted shapes are time.Time, *time.Time, pgtype.Timestamptz, BSON DateTime and
// Timestamp, and anything exposing AsTime, ToTime or Time returning a time.Time.
// Every other value, and any zero or invalid timestamp, yields nil.
func ActivityTime(raw interface{}) (out *time.Time) {
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()

	switch v := raw.(type) {
	case nil:
		return nil
	case time.Time:
		return nonZero(v)
	case *time.Time:
		if v == nil {
			return nil
		}
		return nonZero(*v)
	case pgtype.Timestamptz:
		return fromTimestamptz(v)
	case *pgtype.Timestamptz:
		if v == nil {
			return nil
		}
		return fromTimestamptz(*v)
	case primitive.DateTime:
		return nonZero(v.Time())
	case primitive.Timestamp:
		if v.T == 0 && v.I == 0 {
			return nil
		}
		return nonZero(time.Unix(int64(v.T), 0))
	case interface{ AsTime() time.Time }:
		return nonZero(v.AsTime())
	case interface{ ToTime() time.Time }:
		return nonZero(v.ToTime())
	case interface{ Time() time.Time }:
		return nonZero(v.Time())
	}
	return nil
}

// LobbyRef extracts a lobby id from a stored lobbyId value. Non-string shapes give "".
func LobbyRef(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case pgtype.Text:
		if !v.Valid {
			return ""
		}
		return v.String
	}
	return ""
}

func fromTimestamptz(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid || ts.InfinityModifier != pgtype.Finite {
		return nil
	}
	return nonZero(ts.Time)
}

func nonZero(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

package a

import (
	"context"
	"regexp"
)

type User struct{ ID int64 }

type Directory interface {
	FindUserByID(ctx context.Context, id int64) (*User, error)
	FindUsersByIDs(ctx context.Context, ids []int64) (map[int64]*User, error)
}

func badLookup(ctx context.Context, ids []int64, d Directory) {
	for _, id := range ids {
		d.FindUserByID(ctx, id) // want "potential N\\+1: FindUserByID called inside loop - load with FindUsersByIDs"
	}
}

func goodLookup(ctx context.Context, ids []int64, d Directory) {
	users, _ := d.FindUsersByIDs(ctx, ids)
	for _, id := range ids {
		_ = users[id]
	}
}

func badRegexp(names []string) {
	for _, name := range names {
		re := regexp.MustCompile(`^[a-z_]+$`) // want "regexp.MustCompile called inside loop"
		_ = re.MatchString(name)
	}
}

var typeName = regexp.MustCompile(`^[a-z_]+$`)

func goodRegexp(names []string) {
	for _, name := range names {
		_ = typeName.MatchString(name)
	}
}

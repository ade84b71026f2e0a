package service_test

import (
	"testing"

	"github.com/bwmarrin/snowflake"
)

func mustParse(t *testing.T, id string) snowflake.ID {
	t.Helper()
	parsed, err := snowflake.ParseString(id)
	if err != nil {
		t.Fatalf("parse id %q: %v", id, err)
	}
	return parsed
}

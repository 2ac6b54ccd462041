package service_test

import (
	"testing"

	"go.uber.org/goleak"
)

// Every test shuts its engine down; no tick loop may outlive it.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

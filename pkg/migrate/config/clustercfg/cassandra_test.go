package clustercfg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	ok := Cassandra{Cqlsh: "cqlsh", Host: "127.0.0.1", Port: 9042, Timeout: time.Second}
	assert.NoError(t, ok.Validate())

	bad := Cassandra{Port: 70000}
	err := bad.Validate()
	assert.ErrorContains(t, err, "cluster.cqlsh is required")
	assert.ErrorContains(t, err, "cluster.host is required")
	assert.ErrorContains(t, err, "out of range")
	assert.ErrorContains(t, err, "timeout must be positive")
}

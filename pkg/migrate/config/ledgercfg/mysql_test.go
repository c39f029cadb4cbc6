package ledgercfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetDSN(t *testing.T) {
	m := MYSQL{Host: "db.internal", UserName: "cdm", Password: "pw", Port: 3306, DB: "ledger"}
	assert.True(t, m.Enabled())
	assert.Equal(t, "cdm:pw@tcp(db.internal:3306)/ledger?parseTime=true&collation=utf8mb4_general_ci&autocommit=true", m.GetDSN())
	assert.False(t, (&MYSQL{}).Enabled())
}

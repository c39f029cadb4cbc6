package ddl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/baderkha/cdm-runner/pkg/migrate/config/clustercfg"
)

// ErrTimeout : cqlsh did not finish inside its timeout
var ErrTimeout = errors.New("cassandra query took too long")

// DefaultWaitDelay : grace period for output after cqlsh is killed
const DefaultWaitDelay = 2 * time.Second

// Cqlsh : Executor that shells out to cqlsh, no shell involved
type Cqlsh struct {
	Path      string
	Host      string
	Port      int
	UserName  string
	Password  string
	Timeout   time.Duration
	WaitDelay time.Duration
}

func NewCqlsh(cfg clustercfg.Cassandra) *Cqlsh {
	return &Cqlsh{
		Path:      cfg.Cqlsh,
		Host:      cfg.Host,
		Port:      cfg.Port,
		UserName:  cfg.UserName,
		Password:  cfg.Password,
		Timeout:   cfg.Timeout,
		WaitDelay: DefaultWaitDelay,
	}
}

// Args : cqlsh argv for a statement, credentials only when a user is set
func (c *Cqlsh) Args(statement string) []string {
	args := []string{c.Host, strconv.Itoa(c.Port)}
	if c.UserName != "" {
		args = append(args, "-u", c.UserName, "-p", c.Password)
	}
	return append(args, "-e", statement)
}

// Exec : runs the statement, stdout is returned, stderr becomes the error text
func (c *Cqlsh) Exec(ctx context.Context, statement string) (string, error) {
	if c.Timeout <= 0 {
		return "", fmt.Errorf("cqlsh timeout must be positive, got %s", c.Timeout)
	}
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	var outBuf, errBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Path, c.Args(statement)...)
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	// a killed cqlsh can leave children holding the pipes open
	cmd.WaitDelay = c.WaitDelay

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("could not start %s due to : %w", c.Path, err)
	}
	waitErr := cmd.Wait()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return outBuf.String(), ErrTimeout
	}
	if waitErr != nil {
		msg := strings.TrimSpace(errBuf.String())
		if msg == "" {
			msg = waitErr.Error()
		}
		return outBuf.String(), fmt.Errorf("Command failed: %s", msg)
	}
	return outBuf.String(), nil
}

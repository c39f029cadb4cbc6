package migrate

import "context"

// Runner : runs a partitioned copy described by a job file
type Runner interface {
	Run(ctx context.Context) (*Report, error) // fresh run
	Plan() (*Plan, error)                     // expands the job file without executing anything
}

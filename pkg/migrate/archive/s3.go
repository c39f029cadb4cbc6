// package archive
//
// ships the summary and per task logs of a finished run to s3
package archive

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/baderkha/cdm-runner/pkg/migrate/config/archivecfg"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Archiver : uploads the files of a run
type Archiver interface {
	Archive(ctx context.Context, runID string, runStart time.Time, files []string) error
}

// S3Archiver : Archiver backed by s3
type S3Archiver struct {
	Fs     afero.Fs
	Target s3iface.S3API
	Cfg    archivecfg.S3
	Log    zerolog.Logger
}

// NewS3Archiver : archiver using the default aws credential chain
func NewS3Archiver(fsys afero.Fs, cfg archivecfg.S3, log zerolog.Logger) (*S3Archiver, error) {
	awsCfg := aws.NewConfig()
	if cfg.Region != "" {
		awsCfg = awsCfg.WithRegion(cfg.Region)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("ARCHIVE : could not create aws session due to : %w", err)
	}
	return &S3Archiver{Fs: fsys, Target: s3.New(sess), Cfg: cfg, Log: log}, nil
}

// Key : <prefix>/date=<yyyy-mm-dd>/run_id=<id>/<file name>
func (a *S3Archiver) Key(runID string, runStart time.Time, file string) string {
	return path.Join(a.Cfg.PrefixOverride, "date="+runStart.Format("2006-01-02"), "run_id="+runID, filepath.Base(file))
}

// Archive : uploads every file, at most MaxConcurrency at a time. every failed upload is
// reported, one failure does not stop the others
func (a *S3Archiver) Archive(ctx context.Context, runID string, runStart time.Time, files []string) error {
	var (
		wg       errgroup.Group
		mu       sync.Mutex
		finalErr error
	)
	wg.SetLimit(a.concurrency())
	for _, file := range files {
		file := file
		wg.Go(func() error {
			key := a.Key(runID, runStart, file)
			if err := a.UploadFile(ctx, file, key); err != nil {
				mu.Lock()
				finalErr = multierror.Append(finalErr, err)
				mu.Unlock()
				return nil
			}
			a.Log.Debug().Str("file", file).Str("key", key).Msg("archived")
			return nil
		})
	}
	_ = wg.Wait()
	return finalErr
}

// UploadFile : puts one file, retrying up to MaxRetry attempts. the file is reopened for
// every attempt so a partial read never leaks into the next one
func (a *S3Archiver) UploadFile(ctx context.Context, file string, key string) error {
	var (
		retryCtr int
		err      error
	)
	for retryCtr < a.retries() {
		err = a.put(ctx, file, key)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		retryCtr++
	}
	return fmt.Errorf("Attempted uploading key (%s) %d times with no success : original_err=%w", key, retryCtr, err)
}

func (a *S3Archiver) put(ctx context.Context, file string, key string) error {
	f, err := a.Fs.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = a.Target.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Body:   f,
		Bucket: aws.String(a.Cfg.Bucket),
		Key:    aws.String(key),
	})
	return err
}

func (a *S3Archiver) retries() int {
	if a.Cfg.MaxRetry < 1 {
		return 1
	}
	return a.Cfg.MaxRetry
}

func (a *S3Archiver) concurrency() int {
	if a.Cfg.MaxConcurrency < 1 {
		return 1
	}
	return a.Cfg.MaxConcurrency
}

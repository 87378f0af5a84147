package chronology

import (
	"context"
	"os"
	"path/filepath"

	getter "github.com/hashicorp/go-getter"

	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/logger"
)

// Fetch loads a chronology from any go-getter source: a local path, an
// http(s) URL, a git or S3 address, with optional checksum query parameters.
// The file is downloaded to a temporary directory that is removed before
// Fetch returns, so the result has no file path.
func Fetch(ctx context.Context, src string, opts Options) (*Chronology, error) {
	log := opts.Logger
	if log == nil {
		log = logger.ComponentLogger("chronology")
	}

	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}
	detected, err := getter.Detect(src, pwd, getter.Detectors)
	if err != nil {
		return nil, errors.WrapPersistence(err, "detect source %q", src)
	}
	log.Debugw("go-getter detected source", "input", src, "detected", detected)

	tempDir, err := os.MkdirTemp("", "chrono-fetch-*")
	if err != nil {
		return nil, errors.WrapPersistence(err, "create temp directory")
	}
	defer os.RemoveAll(tempDir)

	dst := filepath.Join(tempDir, "chronology")
	client := &getter.Client{
		Ctx:     ctx,
		Src:     detected,
		Dst:     dst,
		Pwd:     pwd,
		Mode:    getter.ClientModeFile,
		Getters: getter.Getters,
	}
	if err := client.Get(); err != nil {
		return nil, errors.WithHint(
			errors.WrapPersistence(err, "fetch chronology from %s", src),
			"sources may be local paths, URLs, git:: or s3:: addresses")
	}

	c, err := Load(dst, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "fetched from %s", src)
	}
	c.path = ""
	log.Infow("Chronology fetched", "source", src, logger.FieldChronology, c.Name(), logger.FieldCount, c.Len())
	return c, nil
}

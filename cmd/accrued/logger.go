package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/iov-one/accrual/errors"
	"github.com/tendermint/tendermint/libs/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds the node logger. The returned closer releases the log
// file, if any.
func newLogger(home string, c *Config) (log.Logger, func() error, error) {
	var w io.Writer = os.Stderr
	closer := func() error { return nil }
	if c.LogFile != "" {
		rotate := &lumberjack.Logger{
			Filename:   filepath.Join(home, c.LogFile),
			MaxSize:    c.LogMaxSize,
			MaxBackups: 3,
			Compress:   true,
		}
		w, closer = rotate, rotate.Close
	}

	logger := log.NewTMLogger(log.NewSyncWriter(w))
	lvl, err := log.AllowLevel(c.LogLevel)
	if err != nil {
		closer()
		return nil, nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return log.NewFilter(logger, lvl).With("module", "accrued"), closer, nil
}

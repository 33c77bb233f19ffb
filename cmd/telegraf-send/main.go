package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	sender "github.com/itzg/telegraf-sender"
)

type option struct {
	address      string
	measurement  string
	tags         []string
	fields       []string
	timestamp    int64
	line         string
	count        int
	interval     time.Duration
	dialTimeout  time.Duration
	writeTimeout time.Duration
	verbose      bool
	logFile      string
}

func (o *option) validate() error {
	if o.address == "" {
		return errors.New("--address option is required")
	}
	if o.line == "" && o.measurement == "" {
		return errors.New("one of --line or --measurement is required")
	}
	if o.line != "" && (o.measurement != "" || len(o.tags) > 0 || len(o.fields) > 0) {
		return errors.New("--line cannot be combined with --measurement, --tag or --field")
	}
	if o.line == "" && len(o.fields) == 0 {
		return errors.New("at least one --field is required")
	}
	if o.count < 1 {
		return errors.New("--count must be at least 1")
	}

	return nil
}

func (o *option) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.address, "address", "", "socket_listener address: tcp://, udp://, unix:// or unixgram://")
	cmd.Flags().StringVarP(&o.measurement, "measurement", "m", "", "measurement name")
	cmd.Flags().StringArrayVarP(&o.tags, "tag", "t", nil, "tag as key=value, repeatable")
	cmd.Flags().StringArrayVarP(&o.fields, "field", "f", nil, `field as key=value where value is 10i, 1.5, true or "text", repeatable`)
	cmd.Flags().Int64Var(&o.timestamp, "timestamp", 0, "timestamp in nanoseconds since the epoch, omitted when unset")
	cmd.Flags().StringVar(&o.line, "line", "", "complete line protocol point to send")
	cmd.Flags().IntVar(&o.count, "count", 1, "number of times to send the point")
	cmd.Flags().DurationVar(&o.interval, "interval", 0, "pause between repeated sends")
	cmd.Flags().DurationVar(&o.dialTimeout, "dial-timeout", 5*time.Second, "timeout for connecting")
	cmd.Flags().DurationVar(&o.writeTimeout, "write-timeout", 0, "timeout for each write, 0 for none")
	cmd.Flags().BoolVarP(&o.verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().StringVar(&o.logFile, "log-file", "", "write logs to a rotated file instead of stderr")
}

func (o *option) point(timestampSet bool) (sender.Point, error) {
	if o.line != "" {
		p, err := sender.ParsePoint(o.line)
		if err != nil || !timestampSet {
			return p, err
		}
		if p.HasTimestamp() {
			return sender.Point{}, errors.New("--timestamp conflicts with the timestamp in --line")
		}
		p.SetTimestamp(o.timestamp)
		return p, p.Validate()
	}

	p := sender.NewPoint(o.measurement)
	for _, tag := range o.tags {
		key, value, ok := strings.Cut(tag, "=")
		if !ok {
			return sender.Point{}, fmt.Errorf("tag %q is not key=value", tag)
		}
		p.AddTag(key, value)
	}

	for _, field := range o.fields {
		key, literal, ok := strings.Cut(field, "=")
		if !ok {
			return sender.Point{}, fmt.Errorf("field %q is not key=value", field)
		}
		value, err := sender.ParseFieldValue(literal)
		if err != nil {
			return sender.Point{}, fmt.Errorf("field %q: %w", key, err)
		}
		p.AddField(key, value)
	}

	if timestampSet {
		p.SetTimestamp(o.timestamp)
	}

	return *p, p.Validate()
}

func (o *option) logger() *zap.Logger {
	level := zap.InfoLevel
	if o.verbose {
		level = zap.DebugLevel
	}

	if o.logFile != "" {
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   o.logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		})
		return zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), w, level))
	}

	return zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stderr),
		level,
	))
}

func (o *option) run(ctx context.Context, point sender.Point, logger *zap.Logger) error {
	client, err := sender.NewClient(ctx, sender.Config{
		Address:      o.address,
		DialTimeout:  o.dialTimeout,
		WriteTimeout: o.writeTimeout,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("could not create client: %w", err)
	}
	defer client.Close()

	limiter := rate.NewLimiter(rate.Every(o.interval), 1)
	for i := 1; i <= o.count; i++ {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		if err := client.Write(point); err != nil {
			return fmt.Errorf("could not write point %d: %w", i, err)
		}
		logger.Debug("wrote point",
			zap.String("measurement", point.Measurement),
			zap.Stringer("address", client.Transport().Address()),
			zap.Int("n", i),
		)
	}

	return nil
}

func NewCmd() *cobra.Command {
	var opt option

	cmd := &cobra.Command{
		Use:   "telegraf-send",
		Short: "Send a line protocol point to Telegraf",
		Long:  "telegraf-send writes one line protocol point to a Telegraf socket_listener over TCP, UDP or Unix-domain sockets.",
		Example: `  telegraf-send --address tcp://localhost:8094 -m cpu -t host=web1 -f usage=20.5
  telegraf-send --address unixgram:///tmp/telegraf.sock --line 'mem used=10i'`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opt.validate(); err != nil {
				return err
			}

			point, err := opt.point(cmd.Flags().Changed("timestamp"))
			if err != nil {
				return err
			}

			logger := opt.logger()
			defer logger.Sync()

			return opt.run(cmd.Context(), point, logger)
		},
	}

	opt.addFlags(cmd)

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

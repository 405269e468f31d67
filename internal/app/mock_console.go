// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/swim_computer/internal/fusion"
	"github.com/relabs-tech/swim_computer/internal/motion"
	"github.com/relabs-tech/swim_computer/internal/sample"
)

// simulateOffline runs a simulated swim through an in-process core and
// writes every event to out.
func simulateOffline(ctx context.Context, cfg fusion.Config, opts SimOptions, out io.Writer) (fusion.Snapshot, error) {
	core := fusion.New(cfg,
		fusion.WithLogger(log.Default()),
		fusion.WithRateController(fusion.RateControllerFunc(func(r motion.Rate) {
			fmt.Fprintf(out, "%10s  [RATE  ] %s\n", "", r)
		})),
	)
	core.StartRecording()

	var at int64
	err := replaySwim(ctx, opts, 0, func(s sample.Sample) {
		at = s.Timestamp()
		for _, ev := range core.Dispatch(s) {
			fmt.Fprintf(out, "%10s  %s\n", time.Duration(at).Truncate(time.Millisecond), formatEvent(ev))
		}
	})

	snap := core.Snapshot()
	for _, ev := range core.StopRecording() {
		fmt.Fprintf(out, "%10s  %s\n", time.Duration(at).Truncate(time.Millisecond), formatEvent(ev))
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return snap, err
}

// RunMockConsole swims the simulator through the pipeline without a broker.
func RunMockConsole(cfg fusion.Config, opts SimOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap, err := simulateOffline(ctx, cfg, opts, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf(
		"strokes in cycle=%d  yaw=%6.2f  initial=%6.2f  deviations=%d\n",
		snap.StrokeCount, snap.CurrentYaw, snap.InitialYaw, snap.DeviationCount,
	)
	return nil
}

// Copyright ©2025 The Gifsmith Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The gifsmith executable builds animated GIFs from scene descriptions
// and validates them against delivery target constraint profiles.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gofrs/flock"

	"github.com/gifsmith/gifsmith/internal/animation"
	"github.com/gifsmith/gifsmith/internal/profile"
	"github.com/gifsmith/gifsmith/internal/scene"
	"github.com/gifsmith/gifsmith/internal/slogext"
	"github.com/gifsmith/gifsmith/internal/validate"
	"github.com/gifsmith/gifsmith/internal/version"
)

// Exit status codes.
const (
	success       = 0
	internalError = 1 << (iota - 1)
	invocationError
)

func main() { os.Exit(Main()) }

func Main() int {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		return invocationError
	}
	switch args[0] {
	case "build":
		return build(args[1:])
	case "validate":
		return validateTarget(args[1:])
	case "profiles":
		return profiles(args[1:])
	case "version":
		err := version.Print()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return internalError
		}
		return success
	default:
		usage()
		return invocationError
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage of %s:

  %[1]s build -scene <scene.toml> -o <out.gif> [-colors n] [-emoji] [-dedup]
  %[1]s validate -target <file.gif> [-profile name] [-profiles <extra.toml>] [-verbose] [-watch]
  %[1]s profiles [-profiles <extra.toml>]
  %[1]s version

`, os.Args[0])
}

// newLogger makes the root logger from the common -log and -lines flag
// values.
func newLogger(logging string, lines bool) (*slog.Logger, error) {
	var level slog.LevelVar
	err := level.UnmarshalText([]byte(logging))
	if err != nil {
		return nil, err
	}
	return slog.New(slogext.GoID{Handler: slogext.NewJSONHandler(os.Stderr, &slogext.HandlerOptions{
		Level:     &level,
		AddSource: slogext.NewAtomicBool(lines),
	})}), nil
}

func build(args []string) int {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	scenePath := fs.String("scene", "", "path of the scene description")
	out := fs.String("o", "", "path of the animation to write")
	colors := fs.Int("colors", animation.DefaultColors, "maximum palette size")
	emoji := fs.Bool("emoji", false, "optimize the animation for emoji delivery")
	dedup := fs.Bool("dedup", false, "collapse consecutive identical frames")
	logging := fs.String("log", "info", "logging level (debug, info, warn or error)")
	lines := fs.Bool("lines", false, "display source line details in logs")
	fs.Parse(args)
	if *scenePath == "" || *out == "" {
		fs.Usage()
		return invocationError
	}
	log, err := newLogger(*logging, *lines)
	if err != nil {
		fs.Usage()
		return invocationError
	}
	log = log.With(slog.String("component", "gifsmith.build"))
	ctx := context.Background()

	lockFile := *out + ".lock"
	fl := flock.New(lockFile)
	ok, err := fl.TryLock()
	if err != nil {
		log.LogAttrs(ctx, slog.LevelError, "lock", slog.Any("error", err))
		return internalError
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "%s is being written by another build\n", *out)
		return internalError
	}
	defer func() {
		fl.Unlock()
		os.Remove(lockFile)
	}()

	s, err := scene.Load(*scenePath)
	if err != nil {
		log.LogAttrs(ctx, slog.LevelError, "load scene", slog.Any("error", err))
		return internalError
	}
	frames, err := s.Render()
	if err != nil {
		log.LogAttrs(ctx, slog.LevelError, "render scene", slog.Any("error", err))
		return internalError
	}
	b, err := animation.NewBuilder(s.Width, s.Height, s.FPS)
	if err != nil {
		log.LogAttrs(ctx, slog.LevelError, "new builder", slog.Any("error", err))
		return internalError
	}
	imgs := make([]image.Image, len(frames))
	for i, f := range frames {
		imgs[i] = f
	}
	err = b.AddFrames(imgs)
	if err != nil {
		log.LogAttrs(ctx, slog.LevelError, "add frames", slog.Any("error", err))
		return internalError
	}
	info, err := b.Save(*out, animation.SaveOptions{
		Colors:           *colors,
		OptimizeForEmoji: *emoji,
		RemoveDuplicates: *dedup,
	})
	if err != nil {
		log.LogAttrs(ctx, slog.LevelError, "save", slog.Any("error", err))
		return internalError
	}
	log.LogAttrs(ctx, slog.LevelInfo, "saved",
		slog.String("path", info.Path),
		slog.Int64("size", info.Size),
		slog.Int("frames", info.Frames),
	)
	fmt.Printf("wrote %s: %dx%d %d frames %v %d bytes\n",
		info.Path, info.Width, info.Height, info.Frames, info.Duration, info.Size)
	return success
}

func validateTarget(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	target := fs.String("target", "", "path of the animation to validate")
	name := fs.String("profile", "message", "constraint profile to validate against")
	extra := fs.String("profiles", "", "path of a TOML profile extension file")
	verbose := fs.Bool("verbose", false, "report per-check detail")
	watch := fs.Bool("watch", false, "re-validate when the target changes")
	logging := fs.String("log", "info", "logging level (debug, info, warn or error)")
	lines := fs.Bool("lines", false, "display source line details in logs")
	fs.Parse(args)
	if *target == "" {
		fs.Usage()
		return invocationError
	}
	log, err := newLogger(*logging, *lines)
	if err != nil {
		fs.Usage()
		return invocationError
	}
	log = log.With(slog.String("component", "gifsmith.validate"))

	p, status := lookupProfile(*name, *extra)
	if status != success {
		return status
	}

	if !*watch {
		rep, err := validate.File(*target, p, *verbose)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return internalError
		}
		return printReport(rep)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	events, err := validate.Watch(ctx, *target, p, *verbose, -1, log)
	if err != nil {
		log.LogAttrs(ctx, slog.LevelError, "watch", slog.Any("error", err))
		return internalError
	}
	status = success
	for ev := range events {
		if ev.Err != nil {
			fmt.Fprintln(os.Stderr, ev.Err)
			status = internalError
			continue
		}
		status = printReport(ev.Report)
	}
	return status
}

func printReport(rep validate.Report) int {
	b, err := json.MarshalIndent(rep, "", "\t")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return internalError
	}
	fmt.Printf("%s\n", b)
	if !rep.Pass {
		return internalError
	}
	return success
}

func profiles(args []string) int {
	fs := flag.NewFlagSet("profiles", flag.ExitOnError)
	extra := fs.String("profiles", "", "path of a TOML profile extension file")
	fs.Parse(args)

	table := profile.Builtin()
	if *extra != "" {
		ext, err := profile.Load(*extra)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return internalError
		}
		table = table.Merge(ext)
	}
	for _, name := range table.Names() {
		p, _ := table.Lookup(name)
		fmt.Printf("%s: max %dx%d", name, p.MaxWidth, p.MaxHeight)
		if p.MaxFPS > 0 {
			fmt.Printf(" fps [%v, %v]", p.MinFPS, p.MaxFPS)
		}
		if p.MaxColors > 0 {
			fmt.Printf(" colors %d", p.MaxColors)
		}
		if p.MaxDuration > 0 {
			fmt.Printf(" duration %v", p.MaxDuration)
		}
		fmt.Println()
	}
	return success
}

func lookupProfile(name, extra string) (profile.Profile, int) {
	table := profile.Builtin()
	if extra != "" {
		ext, err := profile.Load(extra)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return profile.Profile{}, internalError
		}
		table = table.Merge(ext)
	}
	p, ok := table.Lookup(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown profile: %s\n", name)
		return profile.Profile{}, invocationError
	}
	return p, success
}

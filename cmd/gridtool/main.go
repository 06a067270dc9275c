// gridtool is a CLI utility for inspecting brick grids and dropping bodies onto them.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/brickgrid/internal/assets"
	"github.com/Faultbox/brickgrid/internal/config"
	"github.com/Faultbox/brickgrid/internal/engine/physics"
	"github.com/Faultbox/brickgrid/internal/engine/terrain"
	"github.com/Faultbox/brickgrid/internal/game/entity"
	"github.com/Faultbox/brickgrid/internal/game/world"
	"github.com/Faultbox/brickgrid/internal/logger"
	"github.com/Faultbox/brickgrid/pkg/formats"
)

// bodyBox is the bounding box used for probes and drops, in world units.
var bodyBox = cube.Box(-0.2, 0, -0.2, 0.2, 1, 0.2)

func main() {
	config.ParseFlags()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}
	command, args := args[0], args[1:]

	if command == "help" {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := initLogger(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	t, err := newTool(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer t.Close()

	switch command {
	case "info":
		err = t.info(os.Stdout, args)
	case "columns", "col":
		err = t.columns(os.Stdout, args)
	case "floor":
		err = t.floor(os.Stdout, args)
	case "drop":
		err = t.drop(os.Stdout, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`gridtool - brick grid utility

Usage:
  gridtool [-config file] [-data dirs] [-game lba1|lba2] [-debug] <command> [options]

Grids are given as a scene index, loaded from the data directories, or as a
path to a grid file.

Commands:
  info <grid>                          Show grid statistics
  columns <grid> <x> <z>               List the columns of a cell
  floor <grid> <x> <y> <z>             Probe the floor below a world position
  drop [-from y] [-dt s] [-speed u/s] [-ticks n] <grid> <x> <z>
                                       Drop the hero until it touches ground

Examples:
  gridtool info 42
  gridtool -game lba1 columns grids/grid_042.gr1 10 12
  gridtool floor 42 6.5 12 8.25
  gridtool drop -from 20 42 6.5 8.25`)
}

func initLogger(cfg config.LoggingConfig) error {
	opts := logger.Options{Level: cfg.Level, Console: os.Stderr}
	if cfg.LogFile != "" {
		opts.File = logger.FileConfig{
			Path:       cfg.LogFile,
			MaxSizeMB:  cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAgeDays: cfg.MaxAgeDays,
			Compress:   true,
		}
	}
	return logger.InitWithOptions(opts)
}

// tool holds the data sources shared by the commands.
type tool struct {
	cfg    *config.Config
	assets *assets.Manager
	world  *world.Manager
}

func newTool(cfg *config.Config) (*tool, error) {
	var cache *assets.Cache
	if cfg.Data.CacheAssets {
		cache = assets.NewCache()
	}
	src, err := assets.NewManager(cache)
	if err != nil {
		return nil, err
	}
	for _, dir := range cfg.Data.Dirs {
		if err := src.AddDir(dir); err != nil {
			src.Close()
			return nil, err
		}
	}
	return &tool{
		cfg:    cfg,
		assets: src,
		world:  world.NewManager(src, cfg),
	}, nil
}

// Close releases the asset sources.
func (t *tool) Close() {
	t.world.Close()
	t.assets.Close()
}

// scene loads a grid by scene index, or from a file path when arg is not a number.
func (t *tool) scene(arg string) (*world.Scene, error) {
	if index, err := strconv.Atoi(arg); err == nil {
		return t.world.LoadScene(context.Background(), index)
	}

	raw, err := formats.ParseGridFile(arg)
	if err != nil {
		return nil, err
	}
	lib, err := t.world.Library(int(raw.Library))
	if err != nil {
		return nil, err
	}
	grid := terrain.FromFormat(raw, lib, nil)
	return &world.Scene{
		Index:  -1,
		Grid:   grid,
		Solver: physics.NewSolver(grid, physics.Options{Legacy: t.cfg.Scene.IsLegacy()}),
		Actors: entity.NewManager(),
	}, nil
}

func (t *tool) info(w io.Writer, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: gridtool info <grid>")
	}
	scene, err := t.scene(args[0])
	if err != nil {
		return err
	}

	stats := scene.Grid.Stats()
	report := orderedmap.NewOrderedMap[string, any]()
	report.Set("grid", args[0])
	report.Set("library", scene.Grid.Library)
	report.Set("cells", stats.Cells)
	report.Set("columns", stats.Columns)
	report.Set("slots", stats.Slots)
	report.Set("ramps", stats.Ramps)
	report.Set("max height", stats.MaxHeight*physics.WorldSize)
	printReport(w, report)

	// Ground types by column count
	types := make([]terrain.GroundType, 0, len(stats.GroundTypes))
	for gt := range stats.GroundTypes {
		types = append(types, gt)
	}
	sort.Slice(types, func(i, j int) bool {
		return stats.GroundTypes[types[i]] > stats.GroundTypes[types[j]]
	})
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Columns by ground type:")
	for _, gt := range types {
		fmt.Fprintf(w, "  %-16s %d\n", gt, stats.GroundTypes[gt])
	}
	return nil
}

func (t *tool) columns(w io.Writer, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: gridtool columns <grid> <x> <z>")
	}
	x, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid x: %w", err)
	}
	z, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid z: %w", err)
	}

	scene, err := t.scene(args[0])
	if err != nil {
		return err
	}
	cell := scene.Grid.CellAt(x, z)
	if cell == nil {
		return fmt.Errorf("cell (%d, %d) is outside the grid", x, z)
	}

	fmt.Fprintf(w, "Cell (%d, %d): %d slots, %d columns\n", x, z, len(cell.Blocks), len(cell.Columns))
	for i, col := range cell.Columns {
		fmt.Fprintf(w, "  [%d] %-10s %-16s layout=%-4d y=%.4f..%.4f sound=%d/%d\n",
			i, col.Shape, col.GroundType, col.Layout,
			col.Box.Min().Y()*physics.WorldSize, col.Box.Max().Y()*physics.WorldSize,
			col.Sound, col.Sound2)
	}
	return nil
}

func (t *tool) floor(w io.Writer, args []string) error {
	if len(args) < 4 {
		return fmt.Errorf("usage: gridtool floor <grid> <x> <y> <z>")
	}
	v, err := parseFloats(args[1:4])
	if err != nil {
		return err
	}

	scene, err := t.scene(args[0])
	if err != nil {
		return err
	}

	pos := mgl32.Vec3{v[0], v[1], v[2]}
	box := cube.Box(
		bodyBox.Min().X()/physics.WorldSize, bodyBox.Min().Y()/physics.WorldSize, bodyBox.Min().Z()/physics.WorldSize,
		bodyBox.Max().X()/physics.WorldSize, bodyBox.Max().Y()/physics.WorldSize, bodyBox.Max().Z()/physics.WorldSize,
	)
	height := physics.FloorHeight(scene.Grid, box, pos.Mul(1/physics.WorldSize))

	report := orderedmap.NewOrderedMap[string, any]()
	report.Set("position", formatVec(pos))
	if height == physics.NoGround {
		report.Set("floor", "none")
	} else {
		report.Set("floor", height*physics.WorldSize)
		report.Set("distance", v[1]-height*physics.WorldSize)
	}
	printReport(w, report)
	return nil
}

func (t *tool) drop(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("drop", flag.ContinueOnError)
	fs.SetOutput(w)
	from := fs.Float64("from", 10, "Starting height in world units")
	dt := fs.Float64("dt", 0.05, "Tick length in seconds")
	speed := fs.Float64("speed", 2, "Fall speed in world units per second")
	maxTicks := fs.Int("ticks", 1000, "Give up after N ticks")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 3 {
		return fmt.Errorf("usage: gridtool drop [options] <grid> <x> <z>")
	}
	v, err := parseFloats(fs.Args()[1:3])
	if err != nil {
		return err
	}

	scene, err := t.scene(fs.Arg(0))
	if err != nil {
		return err
	}

	hero := entity.NewActor(physics.HeroIndex, mgl32.Vec3{v[0], float32(*from), v[1]}, bodyBox)
	scene.Actors.Add(hero)

	fall := mgl32.Vec3{0, -float32(*speed * *dt), 0}
	ticks := 0
	for ; ticks < *maxTicks && !hero.Body.State.IsTouchingGround; ticks++ {
		hero.Move(fall)
		scene.Tick(float32(*dt))
	}

	state := hero.Body.State
	report := orderedmap.NewOrderedMap[string, any]()
	report.Set("ticks", ticks)
	report.Set("landed", state.IsTouchingGround)
	report.Set("position", formatVec(hero.Position()))
	report.Set("floor sound", state.FloorSound)
	report.Set("drowning", state.IsDrowning || state.IsDrowningLava || state.IsDrowningStars)
	report.Set("life", hero.Life)
	printReport(w, report)
	return nil
}

func printReport(w io.Writer, report *orderedmap.OrderedMap[string, any]) {
	for el := report.Front(); el != nil; el = el.Next() {
		fmt.Fprintf(w, "%-12s %v\n", el.Key+":", el.Value)
	}
}

func formatVec(v mgl32.Vec3) string {
	return fmt.Sprintf("%.4f, %.4f, %.4f", v.X(), v.Y(), v.Z())
}

func parseFloats(args []string) ([]float32, error) {
	out := make([]float32, len(args))
	for i, s := range args {
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", s, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

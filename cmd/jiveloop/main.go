package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/jiveloop/internal/analysis"
	"github.com/linuxmatters/jiveloop/internal/audio"
	"github.com/linuxmatters/jiveloop/internal/cli"
	"github.com/linuxmatters/jiveloop/internal/config"
	"github.com/linuxmatters/jiveloop/internal/playback"
	"github.com/linuxmatters/jiveloop/internal/stream"
	"github.com/linuxmatters/jiveloop/internal/ui"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

var CLI struct {
	Input     string  `arg:"" name:"input" help:"Input audio file (WAV, MP3, FLAC; anything else via ffmpeg)" optional:""`
	Output    string  `help:"Render a finite WAV excerpt to this file instead of serving"`
	Duration  float64 `help:"Length of the rendered excerpt in minutes" default:"5"`
	Threshold float64 `help:"Similarity threshold for graph edges (10-150)" default:"60"`
	Prob      float64 `help:"Probability of jumping to a neighbor at each beat boundary" default:"0.5"`
	Listen    string  `help:"HTTP listen address for the stream server" default:":8080"`
	Seed      int64   `help:"Random seed for the walk (0 = time-based)" default:"0"`
	NoUI      bool    `help:"Disable the terminal UI"`
	Version   bool    `help:"Show version information"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("jiveloop"),
		kong.Description("Turn any track into an endless stream by jumping between musically similar beats."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if CLI.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	if CLI.Input == "" {
		cli.PrintError("<input> is required")
		os.Exit(1)
	}
	if _, err := os.Stat(CLI.Input); os.IsNotExist(err) {
		cli.PrintError(fmt.Sprintf("input file does not exist: %s", CLI.Input))
		os.Exit(1)
	}
	if CLI.Output != "" && CLI.Duration <= 0 {
		cli.PrintError(fmt.Sprintf("invalid duration: %.2f minutes", CLI.Duration))
		os.Exit(1)
	}

	track, err := audio.Load(CLI.Input)
	if err != nil {
		cli.PrintError(fmt.Sprintf("loading audio: %v", err))
		os.Exit(1)
	}

	pool := analysis.NewPool(1, 4)
	defer pool.Stop()

	var set *analysis.FeatureSet
	if CLI.NoUI {
		set, err = analyzeHeadless(pool, track)
	} else {
		set, err = analyzeWithUI(pool, track)
	}
	if err != nil {
		cli.PrintError(fmt.Sprintf("analyzing audio: %v", err))
		os.Exit(1)
	}

	if set.EdgeCount() == 0 {
		cli.PrintWarning("no edges at this threshold; the walk will loop the track sequentially")
	}

	if CLI.Output != "" {
		renderFile(track, set)
		return
	}

	serve(track, set, pool)
}

// analyzeHeadless runs the full analysis pass with plain line output.
func analyzeHeadless(pool *analysis.Pool, track *audio.Track) (*analysis.FeatureSet, error) {
	cli.PrintInfo("Input", CLI.Input)
	cli.PrintInfo("Duration", fmt.Sprintf("%.1fs @ %d Hz", track.Duration(), track.SampleRate))

	start := time.Now()
	res := <-pool.Analyze(context.Background(), analysis.Request{
		Samples:    track.Samples,
		SampleRate: track.SampleRate,
		Threshold:  CLI.Threshold,
		Progress: func(u analysis.Update) {
			switch u.Stage {
			case analysis.StageSegmented:
				cli.PrintInfo("Onsets", fmt.Sprintf("%d", u.Onsets))
			case analysis.StageFeatures:
				cli.PrintInfo("Beats", fmt.Sprintf("%d", u.Beats))
			case analysis.StageGraph:
				cli.PrintInfo("Edges", fmt.Sprintf("%d", u.Edges))
			}
		},
	})
	if res.Err != nil {
		return nil, res.Err
	}

	cli.PrintSuccess(fmt.Sprintf("Analysis complete in %s", cli.FormatDuration(time.Since(start))))
	return res.Set, nil
}

// analyzeWithUI runs analysis behind the Bubbletea progress model.
func analyzeWithUI(pool *analysis.Pool, track *audio.Track) (*analysis.FeatureSet, error) {
	model := ui.NewModel(false)
	p := tea.NewProgram(model)

	var set *analysis.FeatureSet
	var analysisErr error

	go func() {
		start := time.Now()
		res := <-pool.Analyze(context.Background(), analysis.Request{
			Samples:    track.Samples,
			SampleRate: track.SampleRate,
			Threshold:  CLI.Threshold,
			Progress: func(u analysis.Update) {
				p.Send(ui.AnalysisProgress{
					Stage:    u.Stage,
					Onsets:   u.Onsets,
					Beats:    u.Beats,
					Edges:    u.Edges,
					Envelope: u.Envelope,
					Elapsed:  time.Since(start),
				})
			},
		})

		if res.Err != nil {
			analysisErr = res.Err
			p.Quit()
			return
		}

		set = res.Set
		p.Send(ui.AnalysisComplete{
			Beats:        len(res.Set.Beats),
			Edges:        res.Set.EdgeCount(),
			Threshold:    config.ClampThreshold(CLI.Threshold),
			Duration:     time.Duration(track.Duration() * float64(time.Second)),
			AnalysisTime: time.Since(start),
		})
	}()

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("running UI: %w", err)
	}
	if analysisErr != nil {
		return nil, analysisErr
	}
	return set, nil
}

// renderFile writes a finite excerpt of the walk to CLI.Output.
func renderFile(track *audio.Track, set *analysis.FeatureSet) {
	engine := playback.NewEngine(track, set, CLI.Seed)
	engine.SetBranchProbability(CLI.Prob)

	start := time.Now()
	if CLI.NoUI {
		if err := playback.Render(CLI.Output, engine, CLI.Duration, nil); err != nil {
			cli.PrintError(fmt.Sprintf("rendering: %v", err))
			os.Exit(1)
		}
	} else {
		model := ui.NewModel(true)
		// Analysis already happened; jump straight to the render phase.
		p := tea.NewProgram(model)

		var renderErr error
		go func() {
			p.Send(ui.AnalysisComplete{
				Beats:     len(set.Beats),
				Edges:     set.EdgeCount(),
				Threshold: config.ClampThreshold(CLI.Threshold),
				Duration:  time.Duration(track.Duration() * float64(time.Second)),
			})

			calls := 0
			progress := func(done, total int64) {
				calls++
				if calls%64 == 0 || done == total {
					p.Send(ui.RenderProgress{Done: done, Total: total, Elapsed: time.Since(start)})
				}
			}

			if err := playback.Render(CLI.Output, engine, CLI.Duration, progress); err != nil {
				renderErr = err
				p.Quit()
				return
			}

			samples := int64(CLI.Duration * 60 * float64(engine.SampleRate()))
			p.Send(ui.RenderComplete{
				OutputFile: CLI.Output,
				Samples:    samples,
				TotalTime:  time.Since(start),
			})
		}()

		if _, err := p.Run(); err != nil {
			cli.PrintError(fmt.Sprintf("running UI: %v", err))
			os.Exit(1)
		}
		if renderErr != nil {
			cli.PrintError(fmt.Sprintf("rendering: %v", renderErr))
			os.Exit(1)
		}
	}

	cli.PrintSuccess(fmt.Sprintf("Done! Output: %s", CLI.Output))
}

// serve runs the endless stream server until interrupted.
func serve(track *audio.Track, set *analysis.FeatureSet, pool *analysis.Pool) {
	station := stream.NewStation(track, set, pool, CLI.Threshold, CLI.Seed)
	station.SetBranchProbability(CLI.Prob)

	cli.PrintBanner()
	cli.PrintInfo("Track", CLI.Input)
	cli.PrintInfo("Beats", fmt.Sprintf("%d", len(set.Beats)))
	cli.PrintInfo("Edges", fmt.Sprintf("%d", set.EdgeCount()))
	cli.PrintInfo("Stream", fmt.Sprintf("http://localhost%s/stream", CLI.Listen))
	cli.PrintInfo("Status", fmt.Sprintf("http://localhost%s/api/status", CLI.Listen))

	srv := &http.Server{
		Addr:    CLI.Listen,
		Handler: stream.NewHandler(station).Mux(),
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		cli.PrintError(fmt.Sprintf("server: %v", err))
		os.Exit(1)
	}
}

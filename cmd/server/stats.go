package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/antigravity/fairwaylog/internal/course"
	"github.com/antigravity/fairwaylog/internal/db"
	"github.com/antigravity/fairwaylog/internal/missmap"
	"github.com/antigravity/fairwaylog/internal/models"
	"github.com/antigravity/fairwaylog/internal/stats"
)

var (
	statsPlayer int
	saveCourse  bool
)

var statsCmd = &cobra.Command{
	Use:   "stats [round-id]",
	Short: "Print stats and the club table for a round",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := db.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		round, err := store.GetRound(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("round %s: %w", args[0], err)
		}
		return printStats(cmd.OutOrStdout(), round, statsPlayer)
	},
}

var importCourseCmd = &cobra.Command{
	Use:   "import-course [scorecard.html]",
	Short: "Read hole pars from an HTML scorecard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		card, err := course.ImportScorecard(f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d holes, par %d\n%v\n", card.CourseName, len(card.Pars), course.Total(card.Pars), card.Pars)

		if !saveCourse {
			return nil
		}
		if card.CourseName == "" {
			return errors.New("scorecard has no course name to save under")
		}
		store, err := db.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.SaveCourse(cmd.Context(), card.CourseName, card.Pars)
	},
}

func init() {
	statsCmd.Flags().IntVarP(&statsPlayer, "player", "p", 0, "player index within the round")
	importCourseCmd.Flags().BoolVar(&saveCourse, "save", false, "store the pars under the course name")
}

func printStats(out io.Writer, round *models.Round, player int) error {
	if player < 0 || player >= len(round.Players) {
		return fmt.Errorf("%w: %d", models.ErrPlayerNotFound, player)
	}
	holes := round.Played(player)
	s := stats.Round(holes)

	fmt.Fprintf(out, "%s, %s (%s) %s\n", round.CourseName, round.Date.Format("Jan 2, 2006"), round.Players[player].Name, round.Status)
	fmt.Fprintf(out, "Score      %d (%s)\n", s.TotalScore, stats.FormatVsPar(s.VsPar))
	fmt.Fprintf(out, "Putts      %d (%.2f per hole)\n", s.TotalPutts, s.PuttsPerHole)
	fmt.Fprintf(out, "GIR        %d/%d (%d%%)\n", s.GIRCount, s.GIRTotal, s.GIRPercent)
	fmt.Fprintf(out, "Fairways   %d/%d (%d%%)\n", s.FWHit, s.FWTotal, s.FWPercent)
	fmt.Fprintf(out, "Scrambling %d/%d (%d%%)\n", s.ScramblingConverted, s.ScramblingAttempts, s.ScramblingPercent)
	fmt.Fprintf(out, "Sand saves %d/%d\n", s.SandSaveConverted, s.SandSaveAttempts)
	fmt.Fprintf(out, "Penalties  %d\n", s.Penalties)

	if len(holes) > 0 {
		fmt.Fprintln(out)
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "HOLE\tPAR\tSCORE\tRESULT")
		for _, h := range holes {
			fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", h.HoleNumber, h.Par, h.Score, stats.ScoreLabel(h.Score, h.Par))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	clubs := stats.Clubs(holes)
	if len(clubs) > 0 {
		fmt.Fprintln(out)
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CLUB\tAPPR\tGIR\tGIR%\tMISS")
		for _, c := range clubs {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d%%\t%s\n", c.Club, c.Approaches, c.GIRHit, c.GIRPercent, c.AvgMiss)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if plot, err := missmap.Project(holes); err == nil {
		fmt.Fprintf(out, "\n%d missed greens plotted\n", len(plot.Dots))
	} else {
		fmt.Fprintln(out, "\nAll greens in regulation, no miss pattern.")
	}
	return nil
}

//nolint:funlen // keeping by design
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/pitstop-strategy-manager/log"
	grpcclient "github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/client"
	strategyv1 "github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/strategy/v1"
	x "github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/strategy/v1/strategyv1connect"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/report"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session"
)

var (
	addr    string
	planReq = strategyv1.RecommendStrategyRequest{}
	stops   int
	anyMix  bool
	pdfFile string
)

func NewClientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "queries a running psm server",
	}
	cmd.PersistentFlags().StringVar(&addr,
		"addr",
		"http://localhost:8080",
		"base url of the psm server")
	cmd.AddCommand(newCalendarCmd(), newRaceCmd(), newPlanCmd())
	return cmd
}

func newCalendarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calendar <season>",
		Short: "lists the races of a season",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			season, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid season %q: %w", args[0], err)
			}
			resp, err := newClient().GetCalendar(cmd.Context(),
				connect.NewRequest(&strategyv1.GetCalendarRequest{Season: season}))
			if err != nil {
				return err
			}
			return printJSON(resp.Msg)
		},
	}
}

func newRaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "race <race_id>",
		Short: "shows the details of a race",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient().GetRace(cmd.Context(),
				connect.NewRequest(&strategyv1.GetRaceRequest{RaceID: args[0]}))
			if err != nil {
				return err
			}
			return printJSON(resp.Msg)
		},
	}
}

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <race_id>",
		Short: "recommends a pit stop strategy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planReq.RaceID = args[0]
			if cmd.Flags().Changed("max-stops") {
				planReq.MaxStops = &stops
			}
			if anyMix {
				enforce := false
				planReq.EnforceTwoCompoundRule = &enforce
			}
			return plan(cmd.Context())
		},
	}
	cmd.Flags().Float64Var(&planReq.BaseLaptimeS, "base-laptime", 80.0, "base lap time in seconds")
	cmd.Flags().Float64Var(&planReq.DegSoftS, "deg-soft", 0.12, "degradation per lap for SOFT")
	cmd.Flags().Float64Var(&planReq.DegMediumS, "deg-medium", 0.08, "degradation per lap for MEDIUM")
	cmd.Flags().Float64Var(&planReq.DegHardS, "deg-hard", 0.05, "degradation per lap for HARD")
	cmd.Flags().IntVar(&planReq.MinStintLaps, "min-stint", 10, "minimum laps per stint")
	cmd.Flags().IntVar(&planReq.MaxStintLaps, "max-stint", 30, "maximum laps per stint")
	cmd.Flags().IntVar(&stops, "max-stops", 2, "maximum number of pit stops")
	cmd.Flags().BoolVar(&anyMix, "single-compound", false,
		"allow strategies using only one compound")
	cmd.Flags().StringVar(&pdfFile, "pdf", "", "write a PDF report of the plan to this file")
	return cmd
}

func plan(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c := newClient()
	if pdfFile != "" {
		ctx = session.AddIDToContext(ctx, session.NewID())
	}
	resp, err := c.RecommendStrategy(ctx, connect.NewRequest(&planReq))
	if err != nil {
		return err
	}
	if err := printJSON(resp.Msg); err != nil {
		return err
	}
	if pdfFile == "" || !resp.Msg.OK {
		return nil
	}
	explain, err := c.ExplainStrategy(ctx, connect.NewRequest(&strategyv1.ExplainStrategyRequest{}))
	if err != nil {
		return err
	}
	if !explain.Msg.OK {
		return fmt.Errorf("could not create report: %s", explain.Msg.Error)
	}
	if err := report.WriteFile(pdfFile, explain.Msg.Plan); err != nil {
		return err
	}
	log.Info("report written", log.String("file", pdfFile))
	return nil
}

func newClient() x.StrategyServiceClient {
	return grpcclient.New(addr)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/raceboard/internal/model"
)

func newSubmitCmd() *cobra.Command {
	var (
		playerID   string
		playerName string
		carID      string
		numericCar bool
		distance   float64
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a score",
		Example: `  raceboard submit --player-id p1 --player-name Ann --car-id red --distance 812.5
  raceboard submit --player-name Ann --car-id 7 --numeric-car --distance 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"playerName": playerName,
				"distance":   distance,
			}
			if cmd.Flags().Changed("player-id") {
				req["playerID"] = playerID
			}
			if numericCar {
				n, err := strconv.ParseFloat(carID, 64)
				if err != nil {
					return fmt.Errorf("--car-id %q is not a number", carID)
				}
				req["carID"] = model.NumericCarID(n)
			} else {
				req["carID"] = model.StringCarID(carID)
			}

			var result SubmitResult
			if err := client.Post(cmd.Context(), "/api/score", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&playerID, "player-id", "", "Player ID (required unless the server appends every run)")
	cmd.Flags().StringVar(&playerName, "player-name", "", "Player display name (required)")
	cmd.Flags().StringVar(&carID, "car-id", "", "Car ID (required)")
	cmd.Flags().BoolVar(&numericCar, "numeric-car", false, "Send the car ID as a JSON number")
	cmd.Flags().Float64Var(&distance, "distance", 0, "Distance reached (required)")
	_ = cmd.MarkFlagRequired("player-name")
	_ = cmd.MarkFlagRequired("car-id")
	_ = cmd.MarkFlagRequired("distance")

	return cmd
}

func newLeaderboardCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			if top < 0 {
				return fmt.Errorf("--top must not be negative")
			}

			var rows []ScoreRow
			if err := client.Get(cmd.Context(), "/api/leaderboard", &rows); err != nil {
				return err
			}
			if top > 0 && len(rows) > top {
				rows = rows[:top]
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(Leaderboard(rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 0, "Only show the first N rows (0 shows all)")

	return cmd
}

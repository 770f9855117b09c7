// Package filterdump implements the "framix filterdump" subcommand:
// design a resampling filter and print its taps or frequency response.
package filterdump

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jlammi/framix/internal/resample"
)

// Command creates the filterdump command.
func Command() *cobra.Command {
	var (
		up, down  int
		aperture  int
		window    string
		beta      float64
		response  int
	)

	cmd := &cobra.Command{
		Use:   "filterdump",
		Short: "Design a polyphase resampling filter and print its taps",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := resample.WindowHann
			if window == "kaiser" {
				w = resample.WindowKaiser
			}
			taps, err := resample.DesignFilter(resample.FilterSpec{
				Up: up, Down: down, Aperture: aperture,
				Window: w, KaiserBeta: beta,
			})
			if err != nil {
				return err
			}

			fmt.Printf("# %d/%d %s filter, aperture %d, %d taps\n",
				up, down, window, aperture, len(taps))
			for i, t := range taps {
				fmt.Printf("%4d % .9f\n", i-(len(taps)-1)/2, t)
			}

			if response > 0 {
				mags := resample.Response(taps, response)
				fmt.Printf("\n# frequency response, %d points DC..Nyquist\n", len(mags))
				for i, m := range mags {
					fmt.Printf("%.5f % .9f\n", float64(i)/float64(2*(len(mags)-1)), m)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&up, "up", 1, "Up-conversion factor")
	cmd.Flags().IntVar(&down, "down", 1, "Down-conversion factor")
	cmd.Flags().IntVar(&aperture, "aperture", 16, "Filter aperture")
	cmd.Flags().StringVar(&window, "window", "hann", "Window function: hann or kaiser")
	cmd.Flags().Float64Var(&beta, "beta", 0, "Kaiser window beta (0 uses the default)")
	cmd.Flags().IntVar(&response, "response", 0, "Also print the frequency response at this many FFT points")

	return cmd
}

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/GlitchKit/greatfet/pkg/greatfet"
	"github.com/GlitchKit/greatfet/pkg/greatfet/flash"
	"github.com/GlitchKit/greatfet/pkg/greatfet/metrics"
	gfprom "github.com/GlitchKit/greatfet/pkg/greatfet/metrics/prometheus"
	"github.com/GlitchKit/greatfet/pkg/greatfet/modules"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var (
	cmdFlash = &cobra.Command{
		Use:   "flash",
		Short: "Read or write the board's onboard SPI flash",
		Long:  ``,
		RunE:  runFlash,
	}
)

var flashAddress int
var flashLength int
var flashReadFile string
var flashWriteFile string
var flashSerial string
var flashReset bool
var flashQuiet bool
var flashConf string
var flashDummy bool
var flashProgress bool
var flashDebug bool
var flashMetrics string

func init() {
	rootCmd.AddCommand(cmdFlash)
	cmdFlash.Flags().IntVarP(&flashAddress, "address", "a", 0, "Starting address")
	cmdFlash.Flags().IntVarP(&flashLength, "length", "l", flash.MaxLength, "Number of bytes to read")
	cmdFlash.Flags().StringVarP(&flashReadFile, "read", "r", "", "Read flash data into file")
	cmdFlash.Flags().StringVarP(&flashWriteFile, "write", "w", "", "Write data from file into flash")
	cmdFlash.Flags().StringVarP(&flashSerial, "serial", "s", "", "Serial number of device, if multiple devices")
	cmdFlash.Flags().BoolVarP(&flashReset, "reset", "R", false, "Reset the board after performing other operations")
	cmdFlash.Flags().BoolVarP(&flashQuiet, "quiet", "q", false, "Suppress messages to stdout")
	cmdFlash.Flags().StringVarP(&flashConf, "conf", "c", "", "Board configuration file")
	cmdFlash.Flags().BoolVarP(&flashDummy, "dummy", "y", false, "Use an in-memory dummy board")
	cmdFlash.Flags().BoolVarP(&flashProgress, "progress", "p", false, "Show a progress bar")
	cmdFlash.Flags().BoolVarP(&flashDebug, "debug", "d", false, "Debug logging")
	cmdFlash.Flags().StringVarP(&flashMetrics, "metrics", "m", "", "Prometheus metrics address (e.g. :2112)")
}

func flashLog(format string, args ...interface{}) {
	if !flashQuiet {
		fmt.Printf(format, args...)
	}
}

// chunkProgress returns a per-chunk callback for one flash operation, and a
// completion function to call once the operation is done.
func chunkProgress(name string, verb string, bar *mpb.Progress) (flash.ProgressFunc, func()) {
	if flashQuiet {
		return nil, func() {}
	}

	if bar != nil {
		var b *mpb.Bar
		return func(done int, total int) {
				if b == nil {
					if total == 0 {
						return
					}
					b = bar.AddBar(int64(total),
						mpb.PrependDecorators(
							decor.Name(name, decor.WCSyncSpaceR),
							decor.CountersKiloByte("%d/%d", decor.WCSyncWidth),
						),
						mpb.AppendDecorators(
							decor.OnComplete(decor.Percentage(decor.WC{W: 5}), "done"),
						),
					)
				}
				b.SetCurrent(int64(done))
			}, func() {
				// The shared bar container is waited on once, after all
				// operations are done.
			}
	}

	return func(done int, total int) {
			fmt.Printf("%s %d bytes of %d.\r", verb, done, total)
		}, func() {
			fmt.Printf("\n")
		}
}

func runFlash(ccmd *cobra.Command, _ []string) error {
	if flashReadFile == "" && flashWriteFile == "" && !flashReset {
		return ccmd.Help()
	}

	log := setupLogger(flashDebug)

	setup, err := setupBoard(flashConf, flashSerial, flashDummy, log)
	if err != nil {
		return err
	}

	trans := setup.trans

	var met metrics.GreatFETMetrics
	if flashMetrics != "" {
		reg := prometheus.NewRegistry()
		met = gfprom.New(reg, gfprom.DefaultConfig())

		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		http.Handle("/metrics", promhttp.HandlerFor(
			reg,
			promhttp.HandlerOpts{
				// Opt into OpenMetrics to support exemplars.
				EnableOpenMetrics: true,
				// Pass custom registry
				Registry: reg,
			},
		))

		go http.ListenAndServe(flashMetrics, nil)

		mm := modules.NewMetrics(trans)
		met.AddTransport(uuid.New().String(), "board", mm)
		defer met.Shutdown()
		trans = mm
	}

	device, err := greatfet.New(trans, &greatfet.Config{
		Logger: log,
		Flash:  setup.flashConf,
	})
	if err != nil {
		return err
	}
	defer device.Close()

	if !flashDummy {
		id, err := device.BoardID()
		if err != nil {
			return err
		}
		serial, err := device.SerialNumber()
		if err != nil {
			return err
		}
		flashLog("%s found. (Serial number: %s)\n", greatfet.BoardName(id), serial)
	}

	var bar *mpb.Progress
	if flashProgress && !flashQuiet {
		bar = mpb.New(
			mpb.WithOutput(color.Output),
			mpb.WithAutoRefresh(),
		)
	}

	// Write first, then read, to match the behavior of hackrf_spiflash.
	if flashWriteFile != "" {
		data, err := os.ReadFile(flashWriteFile)
		if err != nil {
			return err
		}

		flashLog("Writing data to SPI flash...\n")
		progress, done := chunkProgress("write", "Written", bar)
		err = device.OnboardFlash.Write(flashAddress, data, progress)
		if err != nil {
			return err
		}
		done()
		flashLog("Write complete!\n")
		if !flashReset {
			flashLog("Reset not specified; new firmware will not start until next reset.\n")
		}
	}

	if flashReadFile != "" {
		length := flashLength
		if flashAddress+length > device.OnboardFlash.Size() {
			length = device.OnboardFlash.Size() - flashAddress
		}

		flashLog("Reading data from SPI flash...\n")
		progress, done := chunkProgress("read", "Read", bar)
		data, err := device.OnboardFlash.Read(flashAddress, length, progress)
		if err != nil {
			return err
		}
		done()

		err = os.WriteFile(flashReadFile, data, 0644)
		if err != nil {
			return err
		}
		flashLog("Read complete!\n")
	}

	if bar != nil {
		bar.Wait()
	}

	if flashReset {
		flashLog("Resetting GreatFET...\n")
		err = device.Reset()
		if err != nil {
			return err
		}
		flashLog("Reset complete!\n")
	}

	return nil
}

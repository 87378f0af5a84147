package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/chrono/display"
	"github.com/teranos/chrono/timeline"
)

// EncodeCmd turns a calendar date into an axis value
var EncodeCmd = &cobra.Command{
	Use:   "encode <date>",
	Short: "Encode a calendar date onto the time axis",
	Long: `Encode a labelled calendar date into its axis value.

The axis value is a proleptic Gregorian ISO-8601 string with astronomical
year numbering; it is the same whichever calendar the date was written in.

Examples:
  chrono encode "4004 BC"                  # -4003
  chrono encode "4500 BP" -c "Before Present"
  chrono encode 1969-07-20T20:17`,
	Args: cobra.ExactArgs(1),
	RunE: runEncode,
}

// DecodeCmd renders an axis value in a calendar
var DecodeCmd = &cobra.Command{
	Use:   "decode <axis>",
	Short: "Render an axis value as a calendar date",
	Long: `Render an axis value in a calendar's era convention.

--unit selects the precision (Y, M, D, h, m, s, ms, us, ns); the default
is the precision the axis value was written with.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

// CalendarsCmd lists known calendars
var CalendarsCmd = &cobra.Command{
	Use:   "calendars",
	Short: "List the known calendars",
	Long: `List the built-in calendars plus those loaded from the files named by
calendar.registry_files.`,
	Args: cobra.NoArgs,
	RunE: runCalendars,
}

var (
	dateCalendar string
	decodeUnit   string
)

func init() {
	EncodeCmd.Flags().StringVarP(&dateCalendar, "calendar", "c", "", "Calendar of the date (default: calendar.default)")
	DecodeCmd.Flags().StringVarP(&dateCalendar, "calendar", "c", "", "Calendar to render in (default: calendar.default)")
	DecodeCmd.Flags().StringVarP(&decodeUnit, "unit", "u", "", "Precision of the rendered date")
}

type dateView struct {
	Calendar string `json:"calendar"`
	Date     string `json:"date"`
	Axis     string `json:"axis"`
	Unit     string `json:"unit"`
}

func runEncode(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	codec, err := e.codec(dateCalendar)
	if err != nil {
		return err
	}
	v, err := codec.Encode(args[0])
	if err != nil {
		return err
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd, dateView{
			Calendar: codec.Calendar().Name(),
			Date:     args[0],
			Axis:     v.String(),
			Unit:     v.Unit().String(),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.String())
	return nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	codec, err := e.codec(dateCalendar)
	if err != nil {
		return err
	}
	v, err := timeline.Parse(args[0])
	if err != nil {
		return err
	}
	unit := v.Unit()
	if decodeUnit != "" {
		if unit, err = timeline.ParseUnit(decodeUnit); err != nil {
			return err
		}
	}
	date := codec.Render(v, unit)

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd, dateView{
			Calendar: codec.Calendar().Name(),
			Date:     date,
			Axis:     codec.Decode(v, unit),
			Unit:     unit.String(),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), date)
	return nil
}

func runCalendars(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defs := e.registry.All()

	if display.ShouldOutputJSON(cmd) {
		type calendarView struct {
			Name     string `json:"name"`
			Positive string `json:"positive"`
			Negative string `json:"negative"`
			Offset   int64  `json:"offset"`
			Zero     bool   `json:"zero"`
			Default  bool   `json:"default"`
		}
		views := make([]calendarView, 0, len(defs))
		for _, d := range defs {
			views = append(views, calendarView{
				Name:     d.Name(),
				Positive: d.PositiveLabel(),
				Negative: d.NegativeLabel(),
				Offset:   d.ZeroYearOffset(),
				Zero:     d.UsesYearZero(),
				Default:  d.Name() == e.cfg.Calendar.Default,
			})
		}
		return display.OutputJSON(cmd, views)
	}
	return display.Calendars(cmd.OutOrStdout(), defs)
}

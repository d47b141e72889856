package main

import (
	"fmt"
	"time"

	"github.com/habitlog/internal/config"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/recurrence"
	"github.com/habitlog/internal/service"
	"github.com/spf13/cobra"
)

// cliEnv 是各子命令共享的配置与数据库
type cliEnv struct {
	cfg config.AppConfig
	loc *time.Location
}

func openCLIEnv() (*cliEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if err := db.Init(cfg.DatabasePath); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	return &cliEnv{cfg: cfg, loc: loc}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "habitctl",
		Short:         "Maintenance commands for the habitlog database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newInitUserCmd(), newHolidaysCmd(), newDueCmd())
	return root
}

func newInitUserCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "init-user",
		Short: "Create the admin user or reset its password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openCLIEnv()
			if err != nil {
				return err
			}
			if username == "" {
				username = rt.cfg.SuperRootUserName
			}
			if password == "" {
				password = rt.cfg.SuperRootPassword
			}
			if username == "" || password == "" {
				return fmt.Errorf("username and password are required (flags or SUPER_ROOT_USER_NAME / SUPER_ROOT_PASSWORD)")
			}
			if err := db.SetPassword(username, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s ready\n", username)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}

func newHolidaysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "Manage the holiday calendar",
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import holidays from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openCLIEnv()
			if err != nil {
				return err
			}
			count, err := service.NewHolidayService(db.DB, rt.loc).ImportFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d holidays\n", count)
			return nil
		},
	}

	var year string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List holidays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openCLIEnv()
			if err != nil {
				return err
			}
			holidays, err := service.NewHolidayService(db.DB, rt.loc).List(year)
			if err != nil {
				return err
			}
			for _, holiday := range holidays {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", holiday.DateKey, holiday.Name)
			}
			return nil
		},
	}
	listCmd.Flags().StringVar(&year, "year", "", "only list holidays of this year")

	cmd.AddCommand(importCmd, listCmd)
	return cmd
}

func newDueCmd() *cobra.Command {
	var date, group string

	cmd := &cobra.Command{
		Use:   "due",
		Short: "Print habits due on a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openCLIEnv()
			if err != nil {
				return err
			}

			habits := service.NewHabitService(db.DB, rt.loc)
			tracker := service.NewTrackerService(db.DB, habits, rt.loc)
			agendas := service.NewAgendaService(habits, service.NewHolidayService(db.DB, rt.loc), rt.loc)

			day, err := tracker.ParseDate(date)
			if err != nil {
				return err
			}
			agenda, err := agendas.Due(day, group)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			header := recurrence.DayKey(agenda.Date)
			if agenda.Holiday {
				header += " (holiday)"
			}
			fmt.Fprintln(out, header)
			for _, item := range agenda.Items {
				fmt.Fprintf(out, "%-8s %-10s %-10s %s\n", item.Group, item.PeriodKey, item.Status, item.Habit.Name)
			}
			if len(agenda.Items) == 0 {
				fmt.Fprintln(out, "nothing due")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date to evaluate (YYYY-MM-DD, defaults to today)")
	cmd.Flags().StringVar(&group, "group", "", "daily, weekly, monthly or yearly")
	return cmd
}

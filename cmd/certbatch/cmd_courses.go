package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/certbatch/internal/batch"
	"github.com/JonMunkholm/certbatch/internal/course"
)

func newCoursesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "courses",
		Short: "List the courses certificates can be issued for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, c := range course.All() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", c.Slug(), c)
			}
			return nil
		},
	}
}

func joinCourses(c batch.Candidate) string {
	names := make([]string, len(c.Courses))
	for i, crs := range c.Courses {
		names[i] = crs.String()
	}
	return strings.Join(names, ", ")
}

package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/okian/healthrix/internal/cli"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		cmd := cli.NewRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)

		convey.Convey("When asked for help", func() {
			cmd.SetArgs([]string{"--help"})
			err := cmd.ExecuteContext(context.Background())

			convey.Convey("Then usage lists the scoring commands", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, "healthrix")
				convey.So(out.String(), convey.ShouldContainSubstring, "daily")
				convey.So(out.String(), convey.ShouldContainSubstring, "leaderboard")
			})
		})

		convey.Convey("When given an unknown command", func() {
			cmd.SetArgs([]string{"frobnicate"})
			err := cmd.ExecuteContext(context.Background())

			convey.Convey("Then it fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"run", "batch", "schedule", "serve", "runs"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "workflow-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRunCommand_Flags(t *testing.T) {
	for _, name := range []string{"id", "file", "use-llm"} {
		require.NotNil(t, runCmd.Flags().Lookup(name), "run command should have --%s flag", name)
	}
	assert.Equal(t, "false", runCmd.Flags().Lookup("use-llm").DefValue)
	assert.Error(t, runCmd.Args(runCmd, nil))
	assert.NoError(t, runCmd.Args(runCmd, []string{"lead"}))
}

func TestBatchCommand_Flags(t *testing.T) {
	flag := batchCmd.Flags().Lookup("concurrency")
	require.NotNil(t, flag, "batch command should have --concurrency flag")
	assert.Equal(t, "0", flag.DefValue)

	file := batchCmd.Flags().Lookup("file")
	require.NotNil(t, file)
	assert.Equal(t, []string{"true"}, file.Annotations["cobra_annotation_bash_completion_one_required_flag"])
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "show", "stats"} {
		assert.True(t, names[name], "expected runs subcommand %q not found", name)
	}

	require.NotNil(t, runsListCmd.Flags().Lookup("limit"))
	assert.Equal(t, "50", runsListCmd.Flags().Lookup("limit").DefValue)
	assert.Nil(t, runsStatsCmd.Flags().Lookup("limit"))
}

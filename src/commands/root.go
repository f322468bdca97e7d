package commands

import (
	"github.com/spf13/cobra"

	"secdb/src/settings"
)

// cli holds the flag values shared by every subcommand.
type cli struct {
	args *settings.Arguments

	dataFile   string
	password   string
	usersFile  string
	configFile string
	host       string
	port       int
	debug      bool
	verbose    bool
}

// Execute runs the secdb command line.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "secdb",
		Short:         "Encrypted single-file document store",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			args, err := c.resolve(cmd)
			if err != nil {
				return err
			}
			c.args = args
			return nil
		},
	}

	defaults := settings.Defaults()
	flags := root.PersistentFlags()
	flags.StringVar(&c.dataFile, "data-file", defaults.DataFile, "encrypted data file")
	flags.StringVarP(&c.password, "password", "p", defaults.Password, "data file password (or "+settings.PasswordEnv+")")
	flags.StringVar(&c.usersFile, "users-file", "", "users file; enables basic auth on serve")
	flags.StringVar(&c.configFile, "config", "", "JSON config file")
	flags.StringVar(&c.host, "host", defaults.Host, "host name or IP address to listen on")
	flags.IntVar(&c.port, "port", defaults.Port, "port for the HTTP server")
	flags.BoolVar(&c.debug, "debug", false, "development logging to stdout")
	flags.BoolVar(&c.verbose, "verbose", false, "debug level production logging")

	root.AddCommand(serveCmd(c), collectionsCmd(c), dumpCmd(c), userCmd(c))
	return root
}

// resolve layers defaults, the config file, then explicitly set flags.
func (c *cli) resolve(cmd *cobra.Command) (*settings.Arguments, error) {
	args := settings.Defaults()
	flags := cmd.Flags()

	if c.configFile != "" {
		args.ConfigFile = c.configFile
		if err := settings.LoadConfigFile(c.configFile, args); err != nil {
			return nil, err
		}
	}

	if flags.Changed("data-file") {
		args.DataFile = c.dataFile
	}
	if flags.Changed("password") {
		args.Password = c.password
	}
	if flags.Changed("users-file") {
		args.UsersFile = c.usersFile
	}
	if flags.Changed("host") {
		args.Host = c.host
	}
	if flags.Changed("port") {
		args.Port = c.port
	}
	if flags.Changed("debug") {
		args.Debug = c.debug
	}
	if flags.Changed("verbose") {
		args.Verbose = c.verbose
	}
	settings.ApplyEnv(args, flags.Changed("password"))

	if err := settings.Validate(args); err != nil {
		return nil, err
	}
	return args, nil
}

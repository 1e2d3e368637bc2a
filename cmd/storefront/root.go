package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luxemarket/storefront-backend/pkg/kv"
	"github.com/luxemarket/storefront-backend/pkg/storeapi"
)

const (
	configDirName  = ".luxemarket"
	configFileName = "storefront"
	envPrefix      = "STOREFRONT"
)

// settings is everything the client reads from flags, env and the config
// file, in that order of precedence.
type settings struct {
	APIURL         string
	StateFile      string
	IncludePayment bool
	Timeout        time.Duration
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return configDirName
	}
	return filepath.Join(home, configDirName)
}

func loadSettings(v *viper.Viper, cfgFile string) (settings, error) {
	dir := configDir()
	v.SetDefault("api_url", storeapi.DefaultBaseURL)
	v.SetDefault("state_file", filepath.Join(dir, "state.json"))
	v.SetDefault("checkout.include_payment", false)
	v.SetDefault("timeout", "15s")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	s := settings{
		APIURL:         v.GetString("api_url"),
		StateFile:      v.GetString("state_file"),
		IncludePayment: v.GetBool("checkout.include_payment"),
		Timeout:        v.GetDuration("timeout"),
	}
	if s.Timeout <= 0 {
		return settings{}, fmt.Errorf("timeout must be positive, got %q", v.GetString("timeout"))
	}
	return s, nil
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	v := viper.New()
	var cfgFile string
	a := &app{in: newPrompter(in, out), out: out}

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "LuxeMarket terminal storefront",
		Long:          "Browse the LuxeMarket catalog, manage a local cart and place orders against the storefront API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(v, cfgFile)
			if err != nil {
				return err
			}
			return a.init(s)
		},
	}
	root.SetIn(in)
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default $HOME/.luxemarket/storefront.yaml)")
	flags.String("api-url", storeapi.DefaultBaseURL, "storefront API base URL")
	flags.String("state-file", "", "local state file holding the cart and session")
	flags.Duration("timeout", 15*time.Second, "HTTP request timeout")
	_ = v.BindPFlag("api_url", flags.Lookup("api-url"))
	_ = v.BindPFlag("state_file", flags.Lookup("state-file"))
	_ = v.BindPFlag("timeout", flags.Lookup("timeout"))

	root.AddCommand(
		newProductsCmd(a),
		newCartCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newCheckoutCmd(a),
		newOrdersCmd(a),
		newExchangeCmd(a),
		newUPSCmd(a),
	)
	return root
}

func (a *app) init(s settings) error {
	api, err := storeapi.NewClient(s.APIURL, storeapi.WithHTTPClient(&http.Client{Timeout: s.Timeout}))
	if err != nil {
		return err
	}
	state, err := kv.NewFileStore(s.StateFile)
	if err != nil {
		return err
	}
	a.settings = s
	a.api = api
	a.state = state
	a.notifier = newTerminalNotifier(a.out)
	return nil
}

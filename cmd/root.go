package cmd

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgfile string

	rootCmd = &cobra.Command{
		Use:   "agui-pipe",
		Short: "Bridge between OpenWebUI chat completions and an AG-UI agent endpoint",
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgfile, "config", "", "config file (default $HOME/.agui-pipe.yaml)")
}

// initConfig seeds the environment from an optional viper config file.
// Explicit environment variables win over file values, so deployments
// can override a checked-in file per instance.
func initConfig() {
	if cfgfile != "" {
		viper.SetConfigFile(cfgfile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".agui-pipe")
	}

	viper.SetEnvPrefix("AGUI")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Printf("using config file: %v", viper.ConfigFileUsed())
		for _, key := range viper.AllKeys() {
			env := "AGUI_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
			if os.Getenv(env) == "" {
				os.Setenv(env, viper.GetString(key))
			}
		}
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

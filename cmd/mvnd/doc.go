// Package main hosts the mvnd client entrypoint.
//
// mvnd forwards its arguments to an idle build daemon that matches the local
// configuration, spawning one when none is available, and shows the projects
// being built while the session runs. The client-only options are handled
// before anything is forwarded:
//
//	-v, -version, --version   print the version banner and exit
//	-V, --show-version        print the banner, then build
//	-X, --debug               print the banner, then build with debug client logs
//	--status                  list registered daemons
//	--stop                    terminate every registered daemon
//	-l, --log-file <path>     write the build log to path instead of the console
//	--config <path>           read configuration from path
package main

/*
Package access serves host directories and printers to RISC OS
machines over the Acorn Access/ShareFS protocol.

Shares are announced by periodic UDP broadcast on the Freeway
discovery port; protected shares are withheld from broadcast and
revealed individually on the authentication port once a client
presents the PIN derived from the share's password. File operations
arrive as compact little-endian frames on the RPC port and are
answered in kind.

A server is constructed from a validated configuration snapshot and
run until its context is cancelled:

	cfg, err := config.Load("access.yaml")
	if err != nil {
		log.Fatal(err)
	}
	srv := access.NewServer(cfg)
	srv.ErrorLog = log.New(os.Stderr, "", log.LstdFlags)
	log.Fatal(srv.ListenAndServe(context.Background()))

All protocol state (the handle table, the authentication cache, the
in-flight write transfers) is owned by a single event loop; reader
goroutines only ferry datagrams into it.
*/
package access

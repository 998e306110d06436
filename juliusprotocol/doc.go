// Package juliusprotocol provides a Go client for the module-mode protocol
// of the Julius speech recognition engine.
//
// When Julius is started with -module it listens on a TCP port (10500 by
// default) and pushes status and recognition results to the connected client
// as small markup records. Each record spans one or more lines and is closed
// by a line holding a single period.
//
// # Protocol Overview
//
//	Server -> client:  <TAG ATTR="..."> ... </TAG>\n ... .\n
//	Client -> server:  COMMAND\n
//
// Example session:
//
//	SRV: <STARTPROC/>
//	SRV: .
//	CLI: VERSION
//	SRV: <ENGINEINFO TYPE="Julius" VERSION="4.6" CONF="main.jconf"/>
//	SRV: .
//	SRV: <INPUT STATUS="LISTEN" TIME="1700000000"/>
//	SRV: .
//
// # Basic Usage
//
// Create a client and subscribe to the notifications you care about:
//
//	opts := juliusprotocol.DefaultOptions()
//	opts.AutoConnect = false
//	client, err := juliusprotocol.NewClient(opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client.Subscribe(juliusprotocol.KindRecognitionOutput, func(n juliusprotocol.Notification) {
//	    out := n.(juliusprotocol.RecognitionOutput)
//	    if best, ok := out.Best(); ok {
//	        fmt.Println(best.Sentence())
//	    }
//	})
//
//	if err := client.Connect(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Disconnect()
//
// # Request / Reply
//
// Two status queries are answered by a single record of a known kind:
//
//	info, err := client.EngineInfo(ctx)   // sends VERSION, awaits ENGINEINFO
//	sys, err := client.SystemInfo(ctx)    // sends STATUS, awaits SYSINFO
//
// Replies are matched by kind only, so concurrent requests of the same kind
// must be serialized by the caller.
//
// # Decoding Without a Socket
//
// The decoding pipeline is usable on its own:
//
//	var framer juliusprotocol.Framer
//	for _, line := range lines {
//	    if record, ok := framer.Push(line); ok {
//	        notes, err := juliusprotocol.Decode(record)
//	        ...
//	    }
//	}
//
// # Thread Safety
//
// Client and Emitter are safe for concurrent use. Handlers run on the
// client's reader goroutine, one record at a time, in the order records
// arrive.
package juliusprotocol

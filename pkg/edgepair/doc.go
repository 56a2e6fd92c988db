// Package edgepair drives a two-device WasmIoT demo: it follows the
// orchestrator's device logs, keeps a scrollback per device, narrates
// notable events as a paced two-sided chat, and deploys or runs the
// registered deployment matching a (left module, right module) choice.
//
// Quick start:
//
//	d, err := edgepair.New(edgepair.WithOrchestratorURL("http://localhost:3000"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Close()
//
//	if err := d.Load(ctx); err != nil {
//	    log.Printf("catalog: %v", err)
//	}
//	go d.Run(ctx)
//
//	if _, err := d.ResolveAndDeploy(ctx, "camera-module-id", "classifier-module-id"); err != nil {
//	    log.Printf("deploy: %v", err)
//	}
//	for e := range d.Narrative(ctx) {
//	    fmt.Println(e.Left, e.Right)
//	}
//
// A Demo is safe for concurrent use. Narrative entries are delivered once:
// concurrent Narrative consumers share a single stream.
package edgepair

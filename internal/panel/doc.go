// Package panel serves the door twin control page as an embedded asset.
//
// The page shows the current door value, the broker connection dot and
// the configured topic, and offers Toggle, Lock and Unlock buttons. It
// refreshes from /api/state every three seconds and also listens on the
// /api/ws websocket for pushed state.
//
// Assets are embedded with go:embed so the binary has no runtime file
// dependency. A directory can be passed to Handler to serve edited assets
// without rebuilding.
package panel

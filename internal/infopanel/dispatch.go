package infopanel

import (
	"github.com/driftsync/syncshell/internal/events"
)

// Bind registers the panel's handlers on d, one per engine event kind.
func (p *Panel) Bind(d *events.Dispatcher) {
	d.On(events.EventTransferStarted, func(ev events.Event) {
		if te, ok := ev.(*events.TransferEvent); ok {
			p.OnTransferStart(te.Snapshot)
		}
	})
	d.On(events.EventTransferUpdated, func(ev events.Event) {
		if te, ok := ev.(*events.TransferEvent); ok {
			p.OnTransferUpdate(te.Snapshot)
		}
	})
	d.On(events.EventTransferFinished, func(ev events.Event) {
		if te, ok := ev.(*events.TransferEvent); ok {
			p.OnTransferFinish(te.Snapshot, te.Error)
		}
	})
	d.On(events.EventSyncState, func(ev events.Event) {
		if se, ok := ev.(*events.SyncStateEvent); ok {
			p.SetIndexing(se.Scanning)
			p.SetWaiting(se.Waiting)
			p.Tick()
		}
	})
	d.On(events.EventAccountUpdate, func(ev events.Event) {
		if ae, ok := ev.(*events.AccountEvent); ok {
			p.SetUsage(ae.UsedBytes, ae.TotalBytes)
		}
	})
}

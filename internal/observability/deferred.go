package observability

import "sync"

// deferredLevel identifies the severity of a buffered record.
type deferredLevel int8

const (
	deferredDebug deferredLevel = iota
	deferredInfo
	deferredWarn
	deferredError
)

// deferredRecord is one buffered log entry.
type deferredRecord struct {
	level  deferredLevel
	msg    string
	fields []Field
}

// DeferredLogger buffers log records produced before the logging system
// is ready and replays them once a real logger becomes available. After
// ReplayTo has been called, records pass straight through to the target.
//
// It is used by the eager bootstrap path, which may compose property
// sources before the application has configured logging.
type DeferredLogger struct {
	mu      sync.Mutex
	records []deferredRecord
	target  Logger
}

// NewDeferredLogger creates a DeferredLogger with no target.
func NewDeferredLogger() *DeferredLogger {
	return &DeferredLogger{}
}

// ReplayTo flushes all buffered records to target in their original
// order and routes subsequent records directly to it. Calling ReplayTo
// again replaces the target; already-replayed records are not repeated.
func (d *DeferredLogger) ReplayTo(target Logger) {
	d.mu.Lock()
	records := d.records
	d.records = nil
	d.target = target
	d.mu.Unlock()

	for _, r := range records {
		emit(target, r)
	}
}

// Buffered reports the number of records currently held.
func (d *DeferredLogger) Buffered() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.records)
}

func (d *DeferredLogger) log(level deferredLevel, msg string, fields []Field) {
	d.mu.Lock()
	if d.target == nil {
		d.records = append(d.records, deferredRecord{level: level, msg: msg, fields: fields})
		d.mu.Unlock()
		return
	}
	target := d.target
	d.mu.Unlock()

	emit(target, deferredRecord{level: level, msg: msg, fields: fields})
}

func emit(target Logger, r deferredRecord) {
	switch r.level {
	case deferredDebug:
		target.Debug(r.msg, r.fields...)
	case deferredInfo:
		target.Info(r.msg, r.fields...)
	case deferredWarn:
		target.Warn(r.msg, r.fields...)
	case deferredError:
		target.Error(r.msg, r.fields...)
	}
}

// Debug buffers or forwards a debug message.
func (d *DeferredLogger) Debug(msg string, fields ...Field) {
	d.log(deferredDebug, msg, fields)
}

// Info buffers or forwards an info message.
func (d *DeferredLogger) Info(msg string, fields ...Field) {
	d.log(deferredInfo, msg, fields)
}

// Warn buffers or forwards a warning message.
func (d *DeferredLogger) Warn(msg string, fields ...Field) {
	d.log(deferredWarn, msg, fields)
}

// Error buffers or forwards an error message.
func (d *DeferredLogger) Error(msg string, fields ...Field) {
	d.log(deferredError, msg, fields)
}

// Fatal forwards to the target when present; buffered fatal records are
// downgraded to error on replay since the process has already survived.
func (d *DeferredLogger) Fatal(msg string, fields ...Field) {
	d.log(deferredError, msg, fields)
}

// With returns a logger that appends fields to every record.
func (d *DeferredLogger) With(fields ...Field) Logger {
	return &deferredWith{parent: d, fields: fields}
}

// Sync is a no-op for buffered records.
func (d *DeferredLogger) Sync() error {
	return nil
}

// deferredWith carries pre-bound fields on top of a DeferredLogger.
type deferredWith struct {
	parent *DeferredLogger
	fields []Field
}

func (w *deferredWith) combine(fields []Field) []Field {
	out := make([]Field, 0, len(w.fields)+len(fields))
	out = append(out, w.fields...)
	return append(out, fields...)
}

func (w *deferredWith) Debug(msg string, fields ...Field) {
	w.parent.Debug(msg, w.combine(fields)...)
}

func (w *deferredWith) Info(msg string, fields ...Field) {
	w.parent.Info(msg, w.combine(fields)...)
}

func (w *deferredWith) Warn(msg string, fields ...Field) {
	w.parent.Warn(msg, w.combine(fields)...)
}

func (w *deferredWith) Error(msg string, fields ...Field) {
	w.parent.Error(msg, w.combine(fields)...)
}

func (w *deferredWith) Fatal(msg string, fields ...Field) {
	w.parent.Fatal(msg, w.combine(fields)...)
}

func (w *deferredWith) With(fields ...Field) Logger {
	return &deferredWith{parent: w.parent, fields: w.combine(fields)}
}

func (w *deferredWith) Sync() error {
	return w.parent.Sync()
}

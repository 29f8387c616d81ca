package memory

import "fmt"

const VectorDimensions = 768

const schema = `
CREATE TABLE IF NOT EXISTS memories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    category TEXT NOT NULL,
    mood TEXT DEFAULT '',
    tags TEXT DEFAULT '',
    importance INTEGER NOT NULL,
    hits INTEGER DEFAULT 0,
    last_accessed DATETIME,
    created_at DATETIME DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_memories_importance ON memories(importance);
CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at);
CREATE INDEX IF NOT EXISTS idx_memories_category ON memories(category);
CREATE INDEX IF NOT EXISTS idx_memories_title ON memories(title);

CREATE TABLE IF NOT EXISTS reminders (
    id TEXT PRIMARY KEY,
    time_of_day TEXT NOT NULL,
    content TEXT NOT NULL,
    repeat INTEGER DEFAULT 0,
    paused INTEGER DEFAULT 0,
    last_fired_date TEXT DEFAULT '',
    last_fired_at DATETIME,
    created_at DATETIME DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_reminders_time ON reminders(time_of_day, paused);

CREATE TABLE IF NOT EXISTS locations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    address TEXT NOT NULL,
    remark TEXT DEFAULT '',
    battery REAL,
    lat REAL,
    lon REAL,
    created_at DATETIME DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_locations_created ON locations(created_at);

CREATE TABLE IF NOT EXISTS notes (
    key TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    updated_at DATETIME DEFAULT (datetime('now'))
);
`

func vecSchema(dimensions int) string {
	return fmt.Sprintf(`
CREATE VIRTUAL TABLE IF NOT EXISTS vec_memories USING vec0(
    memory_id INTEGER PRIMARY KEY,
    embedding FLOAT[%d]
);
`, dimensions)
}

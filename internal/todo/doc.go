// Package todo parses, validates, and updates task files.
//
// The task file (tasks.json by default) is a JSON array of task objects:
//
//	[
//	    {
//	        "id": "5f0c7f0e-2d7b-4c1e-9a55-3f1f0d7e8c21",
//	        "description": "Buy milk",
//	        "due_date": "2030-01-01",
//	        "status": "Pending",
//	        "created_at": "2024-01-01T00:00:00Z",
//	        "updated_at": "2024-01-01T00:00:00Z"
//	    }
//	]
//
// Only description, due_date and status are required. Files written by older
// versions carry no id; one is assigned on load and persisted on the next save.
//
// # Validation
//
// Load validates the decoded file against the embedded JSON Schema
// (draft 2020-12). A custom schema can be supplied through
// ValidationOptions.SchemaPath. If the schema cannot be compiled, a minimal
// structural check is used instead.
//
// # Task Status Values
//
//   - "Pending": the default for new tasks
//   - "Completed": set by MarkComplete; there is no way back to Pending
//
// # Addressing
//
// Tasks are addressed by their 1-based position in the full, unfiltered list.
// Deleting a task shifts every later task down by one.
//
// # File Format
//
// When writing task files, the package uses:
//   - 4-space indentation
//   - Trailing newline
//   - null for a missing due date
package todo

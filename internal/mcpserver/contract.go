package mcpserver

// EntryFormatContract describes the canonical record block format that
// LLM consumers should follow when writing or replacing entries.
const EntryFormatContract = `# Scribe Entry Format Contract

Every entry appended to the log MUST follow this block structure.

## Structure

` + "```" + `markdown
## HH:MM — Title of the entry
<!-- id: YYYY-MM-DD-HH-MM -->

Free-form Markdown body describing what happened.

**Files touched:**
- ` + "`" + `path/to/file.go` + "`" + ` — what changed
- ` + "`" + `another/file.md` + "`" + `

**Archived:** [` + "`" + `original-name.txt` + "`" + `](assets/YYYY-MM-DD-HH-MM-original-name.txt) — why it was snapshotted

**Related:** YYYY-MM-DD-HH-MM

**Status:** in-progress

---
` + "```" + `

## Rules

1. **Header** is ` + "`" + `## HH:MM — Title` + "`" + ` with a 24-hour time and an em dash
   separating time from title.
2. **The id marker** ` + "`" + `<!-- id: ... -->` + "`" + ` is the line directly after the
   header. Ids are ` + "`" + `YYYY-MM-DD-HH-MM` + "`" + `, optionally with a two-digit
   collision suffix (` + "`" + `-02` + "`" + ` to ` + "`" + `-99` + "`" + `). Never invent ids:
   the new_entry_id tool allocates them.
3. **Sections are optional.** Include Files touched, Archived, Related and
   Status only when they carry content.
4. **Archived links** point into the flat ` + "`" + `assets/` + "`" + ` directory and use
   the stored asset filename ` + "`" + `{id}-{basename}` + "`" + `.
5. **Related** lists ids of earlier entries. A single id goes inline after
   the label; multiple ids go on bullet lines.
6. **Status** is a single short token such as ` + "`" + `in-progress` + "`" + ` or
   ` + "`" + `done` + "`" + `.
7. **Every block ends** with a ` + "`" + `---` + "`" + ` rule on its own line.
8. **Encoding** is UTF-8 with a trailing newline.

## Assets

- Archive files for the latest entry via the ` + "`" + `archive_file` + "`" + ` tool;
  it copies the file into ` + "`" + `assets/` + "`" + ` under the owning entry's id.
- Restore an archived copy with ` + "`" + `restore_asset` + "`" + `; restored files are
  prefixed with ` + "`" + `_` + "`" + ` so they never clobber a live file.
- Asset files are write-once. Re-snapshotting the same file for the same
  entry requires the ` + "`" + `rearchive` + "`" + ` tool.
`

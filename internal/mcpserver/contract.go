package mcpserver

// RuleFormatContract describes the rule set YAML that LLM consumers should
// follow when proposing rules.
const RuleFormatContract = `# confcheck Rule Set Format

A rule set is a YAML document with named, weighted groups of rules and an
optional list of frontmatter fixes.

## Structure

` + "```" + `yaml
version: 1
groups:
  - name: structure            # REQUIRED, unique, [A-Za-z0-9_-]+, not "validation"
    description: Required files
    weight: 3                  # OPTIONAL, >= 0, default 1
    rules:
      - id: readme             # REQUIRED, unique across the set
        kind: file_exists      # REQUIRED, see kinds below
        path: README.md
        severity: error        # OPTIONAL: error (default) or warning
        optional: false        # OPTIONAL: skip instead of fail when absent
frontmatter_fixes:
  - path: docs/**/*.md
    fields:                    # written first, in this order
      role: docs
` + "```" + `

## Kinds

| kind | fields | passes when |
|---|---|---|
| ` + "`file_exists`" + ` | path | path is a regular file |
| ` + "`dir_exists`" + ` | path | path is a directory |
| ` + "`section_present`" + ` | path, pattern, regex?, ignore_case? | every matched file contains pattern |
| ` + "`frontmatter_field`" + ` | path, field, expected? | every matched file has a frontmatter block defining field |
| ` + "`keyword_present`" + ` | paths, keyword, regex?, min_files? | keyword occurs (case-insensitive) in at least min_files files |
| ` + "`setting_equals`" + ` | path, key, expected | key in the JSON file equals expected |

## Rules

1. **Paths** are relative to the scan root, use forward slashes and may not
   escape it. ` + "`path`" + ` may be a glob; ` + "`**`" + ` matches any depth.
2. **Settings files** may contain ` + "`//`" + ` and ` + "`/* */`" + ` comments and
   trailing commas.
3. **Dotted keys** are resolved longest literal prefix first, so
   ` + "`chat.promptFilesLocations..github/instructions`" + ` reaches a key named
   ` + "`.github/instructions`" + ` inside ` + "`chat.promptFilesLocations`" + `.
4. **Warnings** never fail a run; any failed error-severity rule does.
5. **Missing directories** fail a rule with "directory missing", or skip it
   when the rule is optional.
6. **Glob characters** ` + "`*`, `?`, `[` and `{`" + ` always make a path a glob. To
   target a file whose name contains them, escape each with a backslash:
   ` + "`docs/\\[draft\\].md`" + ` names the file ` + "`docs/[draft].md`" + `.
7. **Group names** become report file names (` + "`<name>_report.json`" + `), so
   they are limited to letters, digits, ` + "`-`" + ` and ` + "`_`" + `.
`

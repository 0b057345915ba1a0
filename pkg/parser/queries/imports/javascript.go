package imports

// JSModuleQueries locates import and export statements in JavaScript code.
//
// The statement nodes are captured whole; the extractor walks each captured
// statement to pull out specifiers, aliases and sources. Capturing whole
// statements keeps the query stable across grammar revisions and lets one
// query serve every import/export shape.
const JSModuleQueries = `
; All import statements: named, default, namespace, side-effect
(import_statement) @module.import

; All export statements: declarations, lists, defaults, re-exports
(export_statement) @module.export
`

// JSRefQueries locates file references in JavaScript bundles for the
// cascade resolver.
//
// Captures:
//   - @ref.static    - static import source strings
//   - @ref.dynamic   - dynamic import() argument strings
//   - @ref.call.fn / @ref.call.arg - call with a single string argument;
//     the extractor keeps only require() calls
//   - @ref.reexport  - re-export source strings
//
// Template-literal and computed arguments never match (string) and are
// therefore skipped, as required: they are unresolvable without execution.
const JSRefQueries = `
; Static import: import ... from './chunk';
(import_statement
  source: (string (string_fragment) @ref.static)
)

; Dynamic import: import('./chunk')
(call_expression
  function: (import)
  arguments: (arguments
    (string (string_fragment) @ref.dynamic)
  )
)

; CommonJS require: require('./chunk')
(call_expression
  function: (identifier) @ref.call.fn
  arguments: (arguments
    (string (string_fragment) @ref.call.arg)
  )
)

; Re-export: export { x } from './chunk'; export * from './chunk';
(export_statement
  source: (string (string_fragment) @ref.reexport)
)
`

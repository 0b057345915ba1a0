package imports

// TSModuleQueries locates import and export statements in TypeScript code.
//
// TypeScript shares the statement shapes with JavaScript (the extractor
// handles type-only markers while walking the captured statements), so the
// patterns are identical; they are kept per-language because they compile
// against different grammars.
const TSModuleQueries = `
; All import statements, including "import type" forms
(import_statement) @module.import

; All export statements, including "export type" forms
(export_statement) @module.export
`

// TSRefQueries locates file references in TypeScript bundles for the
// cascade resolver. See JSRefQueries for capture semantics.
const TSRefQueries = `
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

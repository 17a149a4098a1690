// Package bytecode provides immutable representations of compiled Tarn code.
//
// This package defines the output of compilation: pure data structures that
// represent a compiled unit, its function templates, pattern tables, and
// associated metadata. These types are created once during compilation and
// are safe to share across goroutines and VM instances.
//
// # Key Types
//
//   - [Unit]: An immutable compilation unit (constant pool, entry points, main)
//   - [Function]: An immutable function template with dispatch clauses
//   - [Pattern]: A compiled match pattern stored in the constant pool
//   - [RecordShape]: The ordered field layout shared by record literals
//   - [Clause]: One parameter-pattern alternative of a function (value type)
//   - [SourceLocation]: Maps bytecode to source positions (value type)
//
// # Immutability Guarantees
//
// All types in this package are immutable after construction:
//
//   - No mutation methods exist on any type
//   - All fields are unexported
//   - Constructors copy input slices to prevent caller mutation
//   - Accessors return values or immutable pointers, never mutable slices
//
// Index-based access is used for all collections:
//
//	unit.ConstantAt(i)
//	fn.InstructionAt(ip)
//	fn.ClauseAt(j)
//
// # Package Dependencies
//
// This package depends on [github.com/tarn-lang/tarn/op] and the CBOR codec
// used for serialization. It deliberately does not import the object package:
// constants are stored as plain Go values ([]any) and converted to runtime
// values by the VM at load time.
//
// # Self-Consistency
//
// A Unit carries no cross-version compatibility guarantee, but it must be
// internally self-consistent: every jump target and constant index resolves
// within the unit's own tables. [Unit.Validate] checks this and is run
// automatically by [Unmarshal].
package bytecode

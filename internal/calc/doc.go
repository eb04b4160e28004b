// Package calc turns calculator key presses into arithmetic expressions and evaluates them.
//
// Every calculator field owns an Accumulator. The accumulator keeps the raw text buffer, which may be
// an unevaluated expression such as "2000000*3", and a fresh-entry flag that decides whether the next
// keystroke replaces or extends the buffer. Evaluation uses a small recursive-descent parser over
// decimal literals, unary minus and the four binary operators, with * and / binding tighter than + and -.
package calc

package formula

import (
	"math"
	"strconv"
	"strings"

	"github.com/nvirag/vsheet/internal/cellmodel"
)

// builtinFunc is the shape of a function's implementation: it receives the
// Evaluator (to recurse into ranges/cell references) and the call's
// unevaluated argument nodes, since several functions (IF, IFERROR, the
// *IF family) must not eagerly evaluate every argument.
type builtinFunc func(e *Evaluator, args []Node) (cellmodel.CellValue, error)

// builtins is the name -> implementation table, dispatched by upper-cased
// name (spec.md §4.3 "Function dispatch is by upper-cased name").
var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		"SUM":     fnSum,
		"AVERAGE": fnAverage,
		"AVG":     fnAverage,
		"MIN":     fnMin,
		"MAX":     fnMax,
		"COUNT":   fnCount,
		"COUNTA":  fnCounta,

		"IF":         fnIf,
		"SUMIF":      fnSumif,
		"COUNTIF":    fnCountif,
		"AVERAGEIF":  fnAverageif,

		"VLOOKUP": fnVlookup,
		"HLOOKUP": fnHlookup,
		"INDEX":   fnIndex,
		"MATCH":   fnMatch,

		"LEFT":         fnLeft,
		"RIGHT":        fnRight,
		"MID":          fnMid,
		"LEN":          fnLen,
		"TRIM":         fnTrim,
		"UPPER":        fnUpper,
		"LOWER":        fnLower,
		"CONCATENATE":  fnConcat,
		"CONCAT":       fnConcat,

		"ABS":   fnAbs,
		"ROUND": fnRound,
		"INT":   fnInt,
		"MOD":   fnMod,
		"POWER": fnPower,
		"SQRT":  fnSqrt,

		"AND": fnAnd,
		"OR":  fnOr,
		"NOT": fnNot,

		"IFERROR":  fnIferror,
		"ISBLANK":  fnIsblank,
		"ISNUMBER": fnIsnumber,
		"ISTEXT":   fnIstext,
	}
}

func isRangeNode(n Node) bool {
	switch n.(type) {
	case *RefExpr, *RangeExpr:
		return true
	default:
		return false
	}
}

// numericArgs flattens a function's argument list into a slice of floats:
// range/ref arguments contribute only their numeric cells (non-numeric
// cells in a range are silently skipped, per spec.md's "Aggregates over
// numeric ranges"); bare scalar expressions must coerce to a number or the
// whole call fails with #VALUE!.
func numericArgs(e *Evaluator, args []Node) ([]float64, error) {
	var out []float64
	for _, a := range args {
		if isRangeNode(a) {
			if err := e.iterateRange(a, func(v cellmodel.CellValue) {
				if v.Kind == cellmodel.KindNumber {
					out = append(out, v.Number)
				}
			}); err != nil {
				return nil, err
			}
			continue
		}
		v, err := e.eval(a)
		if err != nil {
			return nil, err
		}
		n, ok := toNumber(v)
		if !ok {
			return nil, errAt(cellmodel.ErrValue)
		}
		out = append(out, n)
	}
	return out, nil
}

func fnSum(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	nums, err := numericArgs(e, args)
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	return cellmodel.Number(total), nil
}

func fnAverage(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	nums, err := numericArgs(e, args)
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	if len(nums) == 0 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrDivZero)
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	return cellmodel.Number(total / float64(len(nums))), nil
}

func fnMin(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	nums, err := numericArgs(e, args)
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	if len(nums) == 0 {
		return cellmodel.Number(0), nil
	}
	m := nums[0]
	for _, n := range nums[1:] {
		if n < m {
			m = n
		}
	}
	return cellmodel.Number(m), nil
}

func fnMax(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	nums, err := numericArgs(e, args)
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	if len(nums) == 0 {
		return cellmodel.Number(0), nil
	}
	m := nums[0]
	for _, n := range nums[1:] {
		if n > m {
			m = n
		}
	}
	return cellmodel.Number(m), nil
}

func fnCount(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	count := 0
	for _, a := range args {
		if isRangeNode(a) {
			if err := e.iterateRange(a, func(v cellmodel.CellValue) {
				if v.Kind == cellmodel.KindNumber {
					count++
				}
			}); err != nil {
				return cellmodel.CellValue{}, err
			}
			continue
		}
		v, err := e.eval(a)
		if err != nil {
			return cellmodel.CellValue{}, err
		}
		if v.Kind == cellmodel.KindNumber {
			count++
		}
	}
	return cellmodel.Number(float64(count)), nil
}

func fnCounta(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	count := 0
	for _, a := range args {
		if isRangeNode(a) {
			if err := e.iterateRange(a, func(v cellmodel.CellValue) {
				if v.Kind != cellmodel.KindEmpty {
					count++
				}
			}); err != nil {
				return cellmodel.CellValue{}, err
			}
			continue
		}
		v, err := e.eval(a)
		if err != nil {
			return cellmodel.CellValue{}, err
		}
		if v.Kind != cellmodel.KindEmpty {
			count++
		}
	}
	return cellmodel.Number(float64(count)), nil
}

func fnIf(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) < 2 || len(args) > 3 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	cond, err := e.eval(args[0])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	b, ok := toBoolean(cond)
	if !ok {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	if b {
		return e.eval(args[1])
	}
	if len(args) == 3 {
		return e.eval(args[2])
	}
	return cellmodel.Boolean(false), nil
}

// criterion is a parsed SUMIF/COUNTIF/AVERAGEIF criterion: a comparison
// operator plus the operand it compares against.
type criterion struct {
	op      TokenType
	operand cellmodel.CellValue
}

func parseCriterion(v cellmodel.CellValue) criterion {
	if v.Kind != cellmodel.KindText {
		return criterion{op: EQ, operand: v}
	}
	s := v.Text
	for _, pair := range []struct {
		prefix string
		op     TokenType
	}{
		{">=", GE}, {"<=", LE}, {"<>", NE1}, {"!=", NE2}, {">", GT}, {"<", LT},
	} {
		if strings.HasPrefix(s, pair.prefix) {
			rest := strings.TrimSpace(s[len(pair.prefix):])
			return criterion{op: pair.op, operand: cellmodel.Classify(rest)}
		}
	}
	return criterion{op: EQ, operand: cellmodel.Classify(s)}
}

func matchCriterion(v cellmodel.CellValue, c criterion) bool {
	if c.op == EQ || c.op == NE1 || c.op == NE2 {
		var eq bool
		vn, vok := toNumber(v)
		on, ook := toNumber(c.operand)
		if vok && ook && (v.Kind == cellmodel.KindNumber || c.operand.Kind == cellmodel.KindNumber) {
			eq = vn == on
		} else {
			eq = strings.EqualFold(toDisplayString(v), toDisplayString(c.operand))
		}
		if c.op == EQ {
			return eq
		}
		return !eq
	}
	vn, vok := toNumber(v)
	on, ook := toNumber(c.operand)
	if !vok || !ook {
		return false
	}
	switch c.op {
	case GT:
		return vn > on
	case GE:
		return vn >= on
	case LT:
		return vn < on
	case LE:
		return vn <= on
	}
	return false
}

func fnSumif(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) < 2 || len(args) > 3 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	critVal, err := e.eval(args[1])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	crit := parseCriterion(critVal)

	minCol, minRow, maxCol, maxRow, ok := rangeBounds(args[0])
	if !ok {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	sumMinCol, sumMinRow := minCol, minRow
	if len(args) == 3 {
		sc, sr, _, _, ok := rangeBounds(args[2])
		if !ok {
			return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
		}
		sumMinCol, sumMinRow = sc, sr
	}

	var total float64
	for r := minRow; r <= maxRow; r++ {
		for c := minCol; c <= maxCol; c++ {
			v := e.derefCell(c, r)
			if matchCriterion(v, crit) {
				sr := sumMinRow + (r - minRow)
				sc := sumMinCol + (c - minCol)
				sv := e.derefCell(sc, sr)
				if n, ok := toNumber(sv); ok {
					total += n
				}
			}
		}
	}
	return cellmodel.Number(total), nil
}

func fnCountif(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) != 2 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	critVal, err := e.eval(args[1])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	crit := parseCriterion(critVal)
	minCol, minRow, maxCol, maxRow, ok := rangeBounds(args[0])
	if !ok {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	count := 0
	for r := minRow; r <= maxRow; r++ {
		for c := minCol; c <= maxCol; c++ {
			if matchCriterion(e.derefCell(c, r), crit) {
				count++
			}
		}
	}
	return cellmodel.Number(float64(count)), nil
}

func fnAverageif(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) < 2 || len(args) > 3 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	critVal, err := e.eval(args[1])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	crit := parseCriterion(critVal)
	minCol, minRow, maxCol, maxRow, ok := rangeBounds(args[0])
	if !ok {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	avgMinCol, avgMinRow := minCol, minRow
	if len(args) == 3 {
		sc, sr, _, _, ok := rangeBounds(args[2])
		if !ok {
			return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
		}
		avgMinCol, avgMinRow = sc, sr
	}
	var total float64
	var count int
	for r := minRow; r <= maxRow; r++ {
		for c := minCol; c <= maxCol; c++ {
			if matchCriterion(e.derefCell(c, r), crit) {
				ar := avgMinRow + (r - minRow)
				ac := avgMinCol + (c - minCol)
				if n, ok := toNumber(e.derefCell(ac, ar)); ok {
					total += n
					count++
				}
			}
		}
	}
	if count == 0 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrDivZero)
	}
	return cellmodel.Number(total / float64(count)), nil
}

const lookupEpsilon = 1e-9

func valuesEqual(a, b cellmodel.CellValue) bool {
	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if aok && bok && (a.Kind == cellmodel.KindNumber || b.Kind == cellmodel.KindNumber) {
		return math.Abs(an-bn) < lookupEpsilon
	}
	return strings.EqualFold(toDisplayString(a), toDisplayString(b))
}

func valueLessOrEqual(a, b cellmodel.CellValue) (bool, bool) {
	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if !aok || !bok {
		return false, false
	}
	return an <= bn, true
}

func fnVlookup(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) < 3 || len(args) > 4 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	lookup, err := e.eval(args[0])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	minCol, minRow, maxCol, maxRow, ok := rangeBounds(args[1])
	if !ok {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	colIdx, err := evalInt(e, args[2])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	exact, err := exactMode(e, args, 3)
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	if colIdx < 1 || minCol+colIdx-1 > maxCol {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrRef)
	}

	matchRow, found := -1, false
	for r := minRow; r <= maxRow; r++ {
		cell := e.derefCell(minCol, r)
		if exact {
			if valuesEqual(cell, lookup) {
				matchRow, found = r, true
				break
			}
			continue
		}
		if le, ok := valueLessOrEqual(cell, lookup); ok && le {
			matchRow = r
			found = true
		}
	}
	if !found {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrNA)
	}
	return e.derefCell(minCol+colIdx-1, matchRow), nil
}

func fnHlookup(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) < 3 || len(args) > 4 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	lookup, err := e.eval(args[0])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	minCol, minRow, maxCol, maxRow, ok := rangeBounds(args[1])
	if !ok {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	rowIdx, err := evalInt(e, args[2])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	exact, err := exactMode(e, args, 3)
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	if rowIdx < 1 || minRow+rowIdx-1 > maxRow {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrRef)
	}

	matchCol, found := -1, false
	for c := minCol; c <= maxCol; c++ {
		cell := e.derefCell(c, minRow)
		if exact {
			if valuesEqual(cell, lookup) {
				matchCol, found = c, true
				break
			}
			continue
		}
		if le, ok := valueLessOrEqual(cell, lookup); ok && le {
			matchCol = c
			found = true
		}
	}
	if !found {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrNA)
	}
	return e.derefCell(matchCol, minRow+rowIdx-1), nil
}

// exactMode evaluates the optional trailing boolean argument at idx: spec.md
// §4.3 calls exact mode "fourth arg falsy"; when the argument is omitted it
// defaults to approximate mode, matching conventional VLOOKUP behavior.
func exactMode(e *Evaluator, args []Node, idx int) (bool, error) {
	if len(args) <= idx {
		return false, nil
	}
	v, err := e.eval(args[idx])
	if err != nil {
		return false, err
	}
	b, ok := toBoolean(v)
	if !ok {
		return false, errAt(cellmodel.ErrValue)
	}
	return !b, nil
}

func fnIndex(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) < 2 || len(args) > 3 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	minCol, minRow, maxCol, maxRow, ok := rangeBounds(args[0])
	if !ok {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	first, err := evalInt(e, args[1])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	singleRow := minRow == maxRow
	singleCol := minCol == maxCol

	var rowOff, colOff int
	if len(args) == 3 {
		second, err := evalInt(e, args[2])
		if err != nil {
			return cellmodel.CellValue{}, err
		}
		rowOff, colOff = first, second
	} else if singleRow && !singleCol {
		rowOff, colOff = 1, first
	} else {
		rowOff, colOff = first, 1
	}
	if rowOff < 1 || colOff < 1 || minRow+rowOff-1 > maxRow || minCol+colOff-1 > maxCol {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrRef)
	}
	return e.derefCell(minCol+colOff-1, minRow+rowOff-1), nil
}

// fnMatch implements MATCH(value, range, match_type?). The third argument
// is accepted for call-site compatibility but not distinguished from exact
// matching — see DESIGN.md's Open Question resolution.
func fnMatch(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) < 2 || len(args) > 3 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	lookup, err := e.eval(args[0])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	minCol, minRow, maxCol, maxRow, ok := rangeBounds(args[1])
	if !ok {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	pos := 1
	for r := minRow; r <= maxRow; r++ {
		for c := minCol; c <= maxCol; c++ {
			if valuesEqual(e.derefCell(c, r), lookup) {
				return cellmodel.Number(float64(pos)), nil
			}
			pos++
		}
	}
	return cellmodel.CellValue{}, errAt(cellmodel.ErrNA)
}

func evalInt(e *Evaluator, n Node) (int, error) {
	v, err := e.eval(n)
	if err != nil {
		return 0, err
	}
	f, ok := toNumber(v)
	if !ok {
		return 0, errAt(cellmodel.ErrValue)
	}
	return int(f), nil
}

func evalStr(e *Evaluator, n Node) (string, error) {
	v, err := e.eval(n)
	if err != nil {
		return "", err
	}
	return toDisplayString(v), nil
}

func fnLeft(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) < 1 || len(args) > 2 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	s, err := evalStr(e, args[0])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	n := 1
	if len(args) == 2 {
		n, err = evalInt(e, args[1])
		if err != nil {
			return cellmodel.CellValue{}, err
		}
	}
	r := []rune(s)
	if n < 0 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	if n > len(r) {
		n = len(r)
	}
	return cellmodel.Text(string(r[:n])), nil
}

func fnRight(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) < 1 || len(args) > 2 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	s, err := evalStr(e, args[0])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	n := 1
	if len(args) == 2 {
		n, err = evalInt(e, args[1])
		if err != nil {
			return cellmodel.CellValue{}, err
		}
	}
	r := []rune(s)
	if n < 0 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	if n > len(r) {
		n = len(r)
	}
	return cellmodel.Text(string(r[len(r)-n:])), nil
}

func fnMid(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) != 3 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	s, err := evalStr(e, args[0])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	start, err := evalInt(e, args[1])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	length, err := evalInt(e, args[2])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	if start < 1 || length < 0 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	r := []rune(s)
	if start > len(r) {
		return cellmodel.Text(""), nil
	}
	end := start - 1 + length
	if end > len(r) {
		end = len(r)
	}
	return cellmodel.Text(string(r[start-1 : end])), nil
}

func fnLen(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) != 1 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	s, err := evalStr(e, args[0])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	return cellmodel.Number(float64(len([]rune(s)))), nil
}

func fnTrim(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) != 1 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	s, err := evalStr(e, args[0])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	fields := strings.Fields(s)
	return cellmodel.Text(strings.Join(fields, " ")), nil
}

func fnUpper(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) != 1 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	s, err := evalStr(e, args[0])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	return cellmodel.Text(strings.ToUpper(s)), nil
}

func fnLower(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) != 1 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	s, err := evalStr(e, args[0])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	return cellmodel.Text(strings.ToLower(s)), nil
}

func fnConcat(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	var b strings.Builder
	for _, a := range args {
		s, err := evalStr(e, a)
		if err != nil {
			return cellmodel.CellValue{}, err
		}
		b.WriteString(s)
	}
	return cellmodel.Text(b.String()), nil
}

func fnAbs(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) != 1 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	n, err := evalNum(e, args[0])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	return cellmodel.Number(math.Abs(n)), nil
}

// fnRound implements half-away-from-zero rounding (not banker's rounding).
func fnRound(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) < 1 || len(args) > 2 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	n, err := evalNum(e, args[0])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	k := 0
	if len(args) == 2 {
		k, err = evalInt(e, args[1])
		if err != nil {
			return cellmodel.CellValue{}, err
		}
	}
	factor := math.Pow(10, float64(k))
	scaled := n * factor
	// Re-read the scaled value at 15 significant digits so binary
	// representation error (1.005*100 == 100.49999999999999) does not decide
	// which way a decimal half rounds.
	if s, err := strconv.ParseFloat(strconv.FormatFloat(scaled, 'g', 15, 64), 64); err == nil {
		scaled = s
	}
	var rounded float64
	if scaled >= 0 {
		rounded = math.Floor(scaled + 0.5)
	} else {
		rounded = math.Ceil(scaled - 0.5)
	}
	return cellmodel.Number(rounded / factor), nil
}

func fnInt(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) != 1 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	n, err := evalNum(e, args[0])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	return cellmodel.Number(math.Floor(n)), nil
}

func fnMod(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) != 2 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	x, err := evalNum(e, args[0])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	y, err := evalNum(e, args[1])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	if y == 0 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrDivZero)
	}
	m := math.Mod(x, y)
	if m != 0 && (m < 0) != (y < 0) {
		m += y
	}
	return cellmodel.Number(m), nil
}

func fnPower(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) != 2 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	x, err := evalNum(e, args[0])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	y, err := evalNum(e, args[1])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	return cellmodel.Number(math.Pow(x, y)), nil
}

func fnSqrt(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) != 1 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	n, err := evalNum(e, args[0])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	if n < 0 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrNum)
	}
	return cellmodel.Number(math.Sqrt(n)), nil
}

func evalNum(e *Evaluator, n Node) (float64, error) {
	v, err := e.eval(n)
	if err != nil {
		return 0, err
	}
	f, ok := toNumber(v)
	if !ok {
		return 0, errAt(cellmodel.ErrValue)
	}
	return f, nil
}

func evalBoolArg(e *Evaluator, n Node) (bool, error) {
	v, err := e.eval(n)
	if err != nil {
		return false, err
	}
	b, ok := toBoolean(v)
	if !ok {
		return false, errAt(cellmodel.ErrValue)
	}
	return b, nil
}

func fnAnd(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) == 0 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	for _, a := range args {
		b, err := evalBoolArg(e, a)
		if err != nil {
			return cellmodel.CellValue{}, err
		}
		if !b {
			return cellmodel.Boolean(false), nil
		}
	}
	return cellmodel.Boolean(true), nil
}

func fnOr(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) == 0 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	for _, a := range args {
		b, err := evalBoolArg(e, a)
		if err != nil {
			return cellmodel.CellValue{}, err
		}
		if b {
			return cellmodel.Boolean(true), nil
		}
	}
	return cellmodel.Boolean(false), nil
}

func fnNot(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) != 1 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	b, err := evalBoolArg(e, args[0])
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	return cellmodel.Boolean(!b), nil
}

func fnIferror(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) != 2 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	v, err := e.eval(args[0])
	if err != nil {
		return e.eval(args[1])
	}
	return v, nil
}

func fnIsblank(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) != 1 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	if ref, ok := args[0].(*RefExpr); ok {
		return cellmodel.Boolean(e.derefCell(ref.Ref.Col, ref.Ref.Row).Kind == cellmodel.KindEmpty), nil
	}
	v, err := e.eval(args[0])
	if err != nil {
		return cellmodel.Boolean(false), nil
	}
	return cellmodel.Boolean(v.Kind == cellmodel.KindEmpty), nil
}

func fnIsnumber(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) != 1 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	v, err := e.eval(args[0])
	if err != nil {
		return cellmodel.Boolean(false), nil
	}
	return cellmodel.Boolean(v.Kind == cellmodel.KindNumber), nil
}

func fnIstext(e *Evaluator, args []Node) (cellmodel.CellValue, error) {
	if len(args) != 1 {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	v, err := e.eval(args[0])
	if err != nil {
		return cellmodel.Boolean(false), nil
	}
	return cellmodel.Boolean(v.Kind == cellmodel.KindText), nil
}

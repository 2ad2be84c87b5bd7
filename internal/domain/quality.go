package domain

// Quality clasifica un ajuste según el motor de reglas del evaluador.
type Quality int

const (
	QualityFailed Quality = iota
	QualityUnstable
	QualityPoorConvergence
	QualityOverfitting
	QualityBoundaryStuck
	// QualityCriticalProximity marca tc pegado al límite inferior: casi
	// siempre es un fallo numérico del optimizador, muy raramente un
	// crash inminente real. Alta confianza en el diagnóstico, inutilizable
	// como predicción.
	QualityCriticalProximity
	QualityAcceptable
	QualityHighQuality
)

// String devuelve el identificador estable que se persiste en la base de datos.
func (q Quality) String() string {
	switch q {
	case QualityHighQuality:
		return "high_quality"
	case QualityAcceptable:
		return "acceptable"
	case QualityBoundaryStuck:
		return "boundary_stuck"
	case QualityPoorConvergence:
		return "poor_convergence"
	case QualityOverfitting:
		return "overfitting"
	case QualityUnstable:
		return "unstable"
	case QualityCriticalProximity:
		return "critical_proximity"
	default:
		return "failed"
	}
}

// QualityFromString es la inversa de String; valores desconocidos → Failed.
func QualityFromString(s string) Quality {
	for _, q := range []Quality{
		QualityHighQuality, QualityAcceptable, QualityBoundaryStuck,
		QualityPoorConvergence, QualityOverfitting, QualityUnstable,
		QualityCriticalProximity, QualityFailed,
	} {
		if q.String() == s {
			return q
		}
	}
	return QualityFailed
}

// Assessment es el veredicto del evaluador de calidad sobre un candidato:
// etiqueta categórica, confianza 0-1, problemas detectados y si el resultado
// sirve como predicción. Función pura de (parámetros, estadísticos, bounds).
type Assessment struct {
	Quality    Quality
	Confidence float64
	Issues     []string
	Usable     bool
}

// Package i18n holds the UI translations. French is the default language.
package i18n

import (
	"context"
	"strings"
)

// DefaultLang is used when nothing else matches.
const DefaultLang = "fr"

type langKey struct{}

var messages = map[string]map[string]string{
	"fr": {
		"required":                "Requis",
		"must_be_positive":        "Doit être positif",
		"out_of_range":            "Hors limites",
		"invalid_number":          "Nombre invalide",
		"invalid_credentials":     "Identifiants invalides",
		"client_required":         "Veuillez sélectionner un client.",
		"items_required":          "Ajoutez au moins un produit.",
		"items_incomplete":        "Certaines lignes sont incomplètes.",
		"unknown_client":          "Client inconnu.",
		"unknown_product":         "Produit inconnu.",
		"confirm_required":        "Confirmation requise pour une suppression définitive.",
		"notice.forbidden":        "Sécurité",
		"notice.forbidden.desc":   "Accès refusé – Clé API invalide",
		"notice.server":           "Erreur serveur",
		"notice.server.desc":      "Le serveur Maghreb Global rencontre un problème interne.",
		"notice.network":          "Connexion impossible",
		"notice.network.desc":     "Vérifiez votre accès internet ou le pare-feu du serveur.",
		"notice.conflict":         "Suppression impossible",
		"notice.conflict.desc":    "Ce produit est utilisé dans une facture ou un BL existant.",
		"notice.generic":          "Erreur système",
		"notice.generic.desc":     "Une erreur inconnue est survenue.",
		"notice.saved":            "Enregistré",
		"notice.client_deleted":   "Client supprimé",
		"notice.product_deleted":  "Produit supprimé",
		"notice.product_saved":    "Produit enregistré",
		"notice.document_created": "Document créé",
		"notice.synced":           "Synchronisation terminée",
		"notice.trashed":          "Déplacé dans la corbeille",
		"notice.restored":         "Élément restauré",
		"notice.purged":           "Supprimé définitivement",
		"not_found":               "Élément introuvable",
	},
	"en": {
		"required":                "Required",
		"must_be_positive":        "Must be positive",
		"out_of_range":            "Out of range",
		"invalid_number":          "Invalid number",
		"invalid_credentials":     "Invalid credentials",
		"client_required":         "Please select a client.",
		"items_required":          "Add at least one product.",
		"items_incomplete":        "Some lines are incomplete.",
		"unknown_client":          "Unknown client.",
		"unknown_product":         "Unknown product.",
		"confirm_required":        "Confirmation is required for a permanent deletion.",
		"notice.forbidden":        "Security",
		"notice.forbidden.desc":   "Access denied – invalid API key",
		"notice.server":           "Server error",
		"notice.server.desc":      "The Maghreb Global server hit an internal problem.",
		"notice.network":          "Connection failed",
		"notice.network.desc":     "Check your internet access or the server firewall.",
		"notice.conflict":         "Cannot delete",
		"notice.conflict.desc":    "This product is used by an existing invoice or delivery slip.",
		"notice.generic":          "System error",
		"notice.generic.desc":     "An unknown error occurred.",
		"notice.saved":            "Saved",
		"notice.client_deleted":   "Client deleted",
		"notice.product_deleted":  "Product deleted",
		"notice.product_saved":    "Product saved",
		"notice.document_created": "Document created",
		"notice.synced":           "Synchronisation complete",
		"notice.trashed":          "Moved to trash",
		"notice.restored":         "Item restored",
		"notice.purged":           "Permanently deleted",
		"not_found":               "Item not found",
	},
}

// T translates code into lang, falling back to French, then to the code itself.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLang][code]; ok {
		return s
	}
	return code
}

// DetectLanguage picks a supported language from an Accept-Language header.
func DetectLanguage(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if _, ok := messages[base]; ok {
			return base
		}
	}
	return DefaultLang
}

// WithLang stores the UI language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFromContext returns the UI language, French by default.
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(langKey{}).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}

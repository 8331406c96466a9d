// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

// MaxBasisPoints is the denominator of every basis point figure (100%).
const MaxBasisPoints = 10000

// Well known addresses. The ledger address is the custody account holding every escrowed,
// seized and funded asset.
var (
	LedgerAddress = BytesToAddress([]byte("StakeLedger"))
	AccessAddress = BytesToAddress([]byte("StakeLedgerAccess"))
)
